package reports

import (
	"sort"
	"strings"

	"tickethub/models"
)

// Sorting happens over the full cached dataset, column name matching the
// response field. Unknown columns fall back to the table's default; ties
// keep their relative order (sort.SliceStable with a strict less).

func sortRevenueRows(rows []models.RevenueRow, sortBy, sortOrder string) {
	desc := !strings.EqualFold(sortOrder, "asc")

	var less func(a, b models.RevenueRow) bool
	switch sortBy {
	case "eventTitle":
		less = func(a, b models.RevenueRow) bool { return a.EventTitle < b.EventTitle }
	case "city":
		less = func(a, b models.RevenueRow) bool { return a.City < b.City }
	case "ordersCount":
		less = func(a, b models.RevenueRow) bool { return a.OrdersCount < b.OrdersCount }
	case "ticketsSold":
		less = func(a, b models.RevenueRow) bool { return a.TicketsSold < b.TicketsSold }
	case "averageTicketPrice":
		less = func(a, b models.RevenueRow) bool { return a.AverageTicketPrice < b.AverageTicketPrice }
	default: // totalRevenue
		less = func(a, b models.RevenueRow) bool { return a.TotalRevenue < b.TotalRevenue }
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func sortAttendanceRows(rows []models.AttendanceRow, sortBy, sortOrder string) {
	desc := !strings.EqualFold(sortOrder, "asc")

	var less func(a, b models.AttendanceRow) bool
	switch sortBy {
	case "eventTitle":
		less = func(a, b models.AttendanceRow) bool { return a.EventTitle < b.EventTitle }
	case "city":
		less = func(a, b models.AttendanceRow) bool { return a.City < b.City }
	case "ticketsSold":
		less = func(a, b models.AttendanceRow) bool { return a.TicketsSold < b.TicketsSold }
	case "usedTickets":
		less = func(a, b models.AttendanceRow) bool { return a.UsedTickets < b.UsedTickets }
	case "unusedTickets":
		less = func(a, b models.AttendanceRow) bool { return a.UnusedTickets < b.UnusedTickets }
	default: // attendancePercentage
		less = func(a, b models.AttendanceRow) bool { return a.AttendancePercentage < b.AttendancePercentage }
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

type window struct {
	start int
	end   int
}

// paginate clamps page/pageSize and computes the slice window plus the
// pagination metadata for totalItems rows.
func paginate(totalItems, page, pageSize int) (window, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}

	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return window{start: start, end: end}, models.Pagination{
		CurrentPage:     page,
		PageSize:        pageSize,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1 && totalItems > 0,
	}
}
