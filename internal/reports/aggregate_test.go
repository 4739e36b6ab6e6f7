package reports

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/models"
)

func testEvents() map[string]models.Event {
	return map[string]models.Event{
		"ev1": {ID: "ev1", Title: "Jazz Night", City: "Kuwait City"},
		"ev2": {ID: "ev2", Title: "Comedy Show", City: "Salmiya"},
	}
}

func paidOrder(id, eventID string, amount float64, tickets int, method string) models.Order {
	ticketIDs := make([]string, tickets)
	for i := range ticketIDs {
		ticketIDs[i] = id + "-t"
	}
	return models.Order{
		ID:            id,
		EventID:       eventID,
		TotalAmount:   decimal.NewFromFloat(amount),
		PaymentMethod: method,
		Status:        models.OrderPaid,
		TicketIDs:     ticketIDs,
	}
}

func TestAggregateRevenue_AverageTicketPrice(t *testing.T) {
	orders := []models.Order{
		paidOrder("o1", "ev1", 100, 3, "Visa"),
		paidOrder("o2", "ev1", 50, 1, "Visa"),
	}

	rows := aggregateRevenue(orders, testEvents())
	require.Len(t, rows, 1)

	assert.Equal(t, "ev1", rows[0].EventID)
	assert.Equal(t, "Jazz Night", rows[0].EventTitle)
	assert.Equal(t, 2, rows[0].OrdersCount)
	assert.Equal(t, 4, rows[0].TicketsSold)
	assert.Equal(t, 150.0, rows[0].TotalRevenue)
	assert.Equal(t, 37.5, rows[0].AverageTicketPrice)
}

func TestAggregateRevenue_ZeroTicketsNoDivide(t *testing.T) {
	orders := []models.Order{
		{ID: "o1", EventID: "ev1", TotalAmount: decimal.NewFromInt(80), Status: models.OrderPaid},
	}

	rows := aggregateRevenue(orders, testEvents())
	require.Len(t, rows, 1)

	assert.Equal(t, 0, rows[0].TicketsSold)
	assert.Equal(t, 0.0, rows[0].AverageTicketPrice)
}

func TestAggregateRevenue_PaymentMethodsString(t *testing.T) {
	orders := []models.Order{
		paidOrder("o1", "ev1", 10, 1, "Visa"),
		paidOrder("o2", "ev1", 10, 1, "Visa"),
		paidOrder("o3", "ev1", 10, 1, "Apple Pay"),
	}

	rows := aggregateRevenue(orders, testEvents())
	require.Len(t, rows, 1)
	assert.Equal(t, "Visa (2), Apple Pay (1)", rows[0].PaymentMethods)
}

func TestAggregateRevenue_DropsUnresolvedEvents(t *testing.T) {
	// ev3 is not in the events map, e.g. excluded by a city filter.
	orders := []models.Order{
		paidOrder("o1", "ev1", 10, 1, "Visa"),
		paidOrder("o2", "ev3", 99, 2, "KNET"),
	}

	rows := aggregateRevenue(orders, testEvents())
	require.Len(t, rows, 1)
	assert.Equal(t, "ev1", rows[0].EventID)
}

func TestAggregateAttendance_Percentage(t *testing.T) {
	orders := []models.Order{
		paidOrder("o1", "ev1", 40, 4, "Visa"),
	}
	stats := map[string]ticketStats{
		"o1": {Used: 3, Unused: 1},
	}

	rows := aggregateAttendance(orders, stats, testEvents())
	require.Len(t, rows, 1)

	assert.Equal(t, 4, rows[0].TicketsSold)
	assert.Equal(t, 3, rows[0].UsedTickets)
	assert.Equal(t, 1, rows[0].UnusedTickets)
	assert.Equal(t, 75.0, rows[0].AttendancePercentage)
}

func TestAggregateAttendance_ZeroDenominator(t *testing.T) {
	orders := []models.Order{
		paidOrder("o1", "ev1", 40, 0, "Visa"),
	}

	rows := aggregateAttendance(orders, map[string]ticketStats{}, testEvents())
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].AttendancePercentage)
}

func TestAggregateAttendance_SumsAcrossOrders(t *testing.T) {
	orders := []models.Order{
		paidOrder("o1", "ev2", 10, 2, "Visa"),
		paidOrder("o2", "ev2", 10, 2, "KNET"),
	}
	stats := map[string]ticketStats{
		"o1": {Used: 2, Unused: 0},
		"o2": {Used: 0, Unused: 2},
	}

	rows := aggregateAttendance(orders, stats, testEvents())
	require.Len(t, rows, 1)
	assert.Equal(t, 50.0, rows[0].AttendancePercentage)
}

func TestAttendancePercentage_Rounding(t *testing.T) {
	assert.Equal(t, 33.33, attendancePercentage(1, 2))
	assert.Equal(t, 66.67, attendancePercentage(2, 1))
}

func TestFormatPaymentMethods_Empty(t *testing.T) {
	assert.Equal(t, "", formatPaymentMethods(nil))
}
