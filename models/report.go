package models

// ReportFilters narrows which paid orders feed a report. All fields are
// optional; empty values mean "no filter".
type ReportFilters struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	EventID     string `json:"event_id"`
	City        string `json:"city"`
	OrganizerID string `json:"organizer_id"`
}

// Params flattens the filters into the map shape the report cache keys on.
func (f ReportFilters) Params() map[string]any {
	return map[string]any{
		"start_date":   f.StartDate,
		"end_date":     f.EndDate,
		"event_id":     f.EventID,
		"city":         f.City,
		"organizer_id": f.OrganizerID,
	}
}

// RevenueRow is one event's row in the revenue report table.
type RevenueRow struct {
	EventID            string  `json:"event_id"`
	EventTitle         string  `json:"event_title"`
	City               string  `json:"city"`
	OrdersCount        int     `json:"orders_count"`
	TicketsSold        int     `json:"tickets_sold"`
	TotalRevenue       float64 `json:"total_revenue"`
	AverageTicketPrice float64 `json:"average_ticket_price"`
	PaymentMethods     string  `json:"payment_methods"`
}

// AttendanceRow is one event's row in the attendance report table.
type AttendanceRow struct {
	EventID              string  `json:"event_id"`
	EventTitle           string  `json:"event_title"`
	City                 string  `json:"city"`
	TicketsSold          int     `json:"tickets_sold"`
	UsedTickets          int     `json:"used_tickets"`
	UnusedTickets        int     `json:"unused_tickets"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	PageSize        int  `json:"pageSize"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// ReportSummary holds the dashboard headline numbers.
type ReportSummary struct {
	TotalRevenue       float64 `json:"total_revenue"`
	TotalOrders        int     `json:"total_orders"`
	TotalTicketsSold   int     `json:"total_tickets_sold"`
	AverageTicketPrice float64 `json:"average_ticket_price"`
	EventsCount        int     `json:"events_count"`
	AttendanceRate     float64 `json:"attendance_rate"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type ReportCharts struct {
	RevenueByEvent []ChartPoint `json:"revenue_by_event"`
	TicketsByDay   []ChartPoint `json:"tickets_by_day"`
}
