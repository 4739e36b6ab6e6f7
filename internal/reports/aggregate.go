package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tickethub/models"
)

// aggregateRevenue groups paid orders by event and computes per-event
// revenue figures. Orders whose event is missing from events are dropped;
// that is how city/organizer filtering reaches event-grouped data.
func aggregateRevenue(orders []models.Order, events map[string]models.Event) []models.RevenueRow {
	type bucket struct {
		orders  int
		tickets int
		revenue decimal.Decimal
		methods map[string]int
	}

	buckets := map[string]*bucket{}
	for _, o := range orders {
		if _, ok := events[o.EventID]; !ok {
			continue
		}

		b, ok := buckets[o.EventID]
		if !ok {
			b = &bucket{methods: map[string]int{}}
			buckets[o.EventID] = b
		}
		b.orders++
		b.tickets += len(o.TicketIDs)
		b.revenue = b.revenue.Add(o.TotalAmount)
		if o.PaymentMethod != "" {
			b.methods[o.PaymentMethod]++
		}
	}

	rows := make([]models.RevenueRow, 0, len(buckets))
	for eventID, b := range buckets {
		ev := events[eventID]
		rows = append(rows, models.RevenueRow{
			EventID:            eventID,
			EventTitle:         ev.Title,
			City:               ev.City,
			OrdersCount:        b.orders,
			TicketsSold:        b.tickets,
			TotalRevenue:       round2(b.revenue),
			AverageTicketPrice: averageTicketPrice(b.revenue, b.tickets),
			PaymentMethods:     formatPaymentMethods(b.methods),
		})
	}
	return rows
}

// aggregateAttendance groups orders by event and sums the per-order
// used/unused ticket tallies. Events absent from the events map are
// dropped, same as in the revenue aggregation.
func aggregateAttendance(orders []models.Order, stats map[string]ticketStats, events map[string]models.Event) []models.AttendanceRow {
	type bucket struct {
		used   int
		unused int
	}

	buckets := map[string]*bucket{}
	for _, o := range orders {
		if _, ok := events[o.EventID]; !ok {
			continue
		}
		b, ok := buckets[o.EventID]
		if !ok {
			b = &bucket{}
			buckets[o.EventID] = b
		}
		s := stats[o.ID]
		b.used += s.Used
		b.unused += s.Unused
	}

	rows := make([]models.AttendanceRow, 0, len(buckets))
	for eventID, b := range buckets {
		ev := events[eventID]
		rows = append(rows, models.AttendanceRow{
			EventID:              eventID,
			EventTitle:           ev.Title,
			City:                 ev.City,
			TicketsSold:          b.used + b.unused,
			UsedTickets:          b.used,
			UnusedTickets:        b.unused,
			AttendancePercentage: attendancePercentage(b.used, b.unused),
		})
	}
	return rows
}

// averageTicketPrice is revenue/tickets rounded to 2 decimals, 0 when no
// tickets were sold.
func averageTicketPrice(revenue decimal.Decimal, tickets int) float64 {
	if tickets == 0 {
		return 0
	}
	return round2(revenue.Div(decimal.NewFromInt(int64(tickets))))
}

// attendancePercentage is used/(used+unused)*100 rounded to 2 decimals,
// 0 when the order has no tickets at all.
func attendancePercentage(used, unused int) float64 {
	total := used + unused
	if total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(used)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100))
	return round2(pct)
}

// formatPaymentMethods renders method tallies as a display string such as
// "Visa (12), Apple Pay (4)", most frequent first, ties by name.
func formatPaymentMethods(methods map[string]int) string {
	if len(methods) == 0 {
		return ""
	}
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if methods[names[i]] != methods[names[j]] {
			return methods[names[i]] > methods[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, methods[name])
	}
	return strings.Join(parts, ", ")
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
