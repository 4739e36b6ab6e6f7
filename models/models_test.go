package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsFinal(t *testing.T) {
	assert.False(t, OrderPending.IsFinal())
	assert.False(t, OrderPaid.IsFinal())
	assert.True(t, OrderCanceled.IsFinal())
	assert.True(t, OrderRefunded.IsFinal())
}

func TestTicket_Admittable(t *testing.T) {
	ticket := Ticket{Status: TicketValid}
	assert.True(t, ticket.Admittable())

	for _, s := range []TicketStatus{TicketPending, TicketUsed, TicketCancelled} {
		ticket.Status = s
		assert.False(t, ticket.Admittable(), "status %s", s)
	}
}

func TestEventDate_SoldOut(t *testing.T) {
	d := EventDate{Date: time.Now(), Capacity: 100, Available: 1}
	assert.False(t, d.SoldOut())

	d.Available = 0
	assert.True(t, d.SoldOut())
}

func TestReportFilters_Params(t *testing.T) {
	f := ReportFilters{City: "Salmiya", EventID: "ev1"}
	params := f.Params()

	assert.Equal(t, "Salmiya", params["city"])
	assert.Equal(t, "ev1", params["event_id"])
	assert.Equal(t, "", params["start_date"])
	assert.Len(t, params, 5)
}
