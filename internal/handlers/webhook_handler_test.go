package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/services/payment"
	"tickethub/models"
)

func setupReconciliationApp(t *testing.T) *tests.TestApp {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	dates := core.NewBaseCollection("event_dates")
	dates.Fields.Add(
		&core.TextField{Name: "event_id", Max: 50},
		&core.NumberField{Name: "available"},
	)
	require.NoError(t, app.Save(dates))

	orders := core.NewBaseCollection("orders")
	orders.Fields.Add(
		&core.TextField{Name: "invoice_id", Max: 100},
		&core.TextField{Name: "event_date_id", Max: 50},
		&core.TextField{Name: "payment_method", Max: 100},
		&core.SelectField{
			Name:      "status",
			MaxSelect: 1,
			Values:    []string{"pending", "paid", "canceled", "refunded"},
		},
		&core.DateField{Name: "paid_at"},
	)
	require.NoError(t, app.Save(orders))

	tickets := core.NewBaseCollection("tickets")
	tickets.Fields.Add(
		&core.TextField{Name: "order_id", Max: 50},
		&core.SelectField{
			Name:      "status",
			MaxSelect: 1,
			Values:    []string{"pending", "valid", "used", "cancelled"},
		},
	)
	require.NoError(t, app.Save(tickets))

	return app
}

func newReconciliationHandler(app core.App) *WebhookHandler {
	return &WebhookHandler{
		app:    app,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func createPendingOrder(t *testing.T, app core.App, invoiceID, eventDateID string, ticketCount int) *core.Record {
	orders, err := app.FindCollectionByNameOrId("orders")
	require.NoError(t, err)

	order := core.NewRecord(orders)
	order.Set("invoice_id", invoiceID)
	order.Set("event_date_id", eventDateID)
	order.Set("status", string(models.OrderPending))
	require.NoError(t, app.Save(order))

	ticketsCol, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)
	for i := 0; i < ticketCount; i++ {
		ticket := core.NewRecord(ticketsCol)
		ticket.Set("order_id", order.Id)
		ticket.Set("status", string(models.TicketPending))
		require.NoError(t, app.Save(ticket))
	}
	return order
}

func orderTickets(t *testing.T, app core.App, orderID string) []*core.Record {
	tickets, err := app.FindRecordsByFilter(
		"tickets",
		"order_id = {:orderId}",
		"", 0, 0,
		map[string]any{"orderId": orderID},
	)
	require.NoError(t, err)
	return tickets
}

func TestWebhookHandler_MarkOrderPaid_TransitionsOrderAndTickets(t *testing.T) {
	app := setupReconciliationApp(t)
	h := newReconciliationHandler(app)
	order := createPendingOrder(t, app, "inv-1", "date-1", 3)

	err := h.markOrderPaid(&payment.InvoiceStatus{InvoiceID: "inv-1", PaymentMethod: "Visa"})
	require.NoError(t, err)

	stored, err := app.FindRecordById("orders", order.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.OrderPaid), stored.GetString("status"))
	assert.Equal(t, "Visa", stored.GetString("payment_method"))
	assert.NotEmpty(t, stored.GetString("paid_at"))

	tickets := orderTickets(t, app, order.Id)
	require.Len(t, tickets, 3)
	for _, ticket := range tickets {
		assert.Equal(t, string(models.TicketValid), ticket.GetString("status"))
	}
}

func TestWebhookHandler_MarkOrderPaid_RedeliveryLeavesOrderAlone(t *testing.T) {
	app := setupReconciliationApp(t)
	h := newReconciliationHandler(app)
	order := createPendingOrder(t, app, "inv-1", "date-1", 1)
	order.Set("status", string(models.OrderPaid))
	order.Set("payment_method", "Visa")
	require.NoError(t, app.Save(order))

	// Gateways redeliver; the second delivery must not overwrite anything.
	err := h.markOrderPaid(&payment.InvoiceStatus{InvoiceID: "inv-1", PaymentMethod: "KNET"})
	require.NoError(t, err)

	stored, err := app.FindRecordById("orders", order.Id)
	require.NoError(t, err)
	assert.Equal(t, "Visa", stored.GetString("payment_method"))
	assert.Equal(t, string(models.OrderPaid), stored.GetString("status"))
}

func TestWebhookHandler_CancelOrder_RestoresAvailability(t *testing.T) {
	app := setupReconciliationApp(t)
	h := newReconciliationHandler(app)

	dates, err := app.FindCollectionByNameOrId("event_dates")
	require.NoError(t, err)
	date := core.NewRecord(dates)
	date.Set("event_id", "ev-1")
	date.Set("available", 5)
	require.NoError(t, app.Save(date))

	order := createPendingOrder(t, app, "inv-2", date.Id, 2)

	err = h.cancelOrder(&payment.InvoiceStatus{InvoiceID: "inv-2"})
	require.NoError(t, err)

	stored, err := app.FindRecordById("orders", order.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.OrderCanceled), stored.GetString("status"))

	for _, ticket := range orderTickets(t, app, order.Id) {
		assert.Equal(t, string(models.TicketCancelled), ticket.GetString("status"))
	}

	reloaded, err := app.FindRecordById("event_dates", date.Id)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.GetInt("available"))
}

func TestWebhookHandler_CancelOrder_FinalOrderUntouched(t *testing.T) {
	app := setupReconciliationApp(t)
	h := newReconciliationHandler(app)
	order := createPendingOrder(t, app, "inv-3", "date-1", 1)
	order.Set("status", string(models.OrderCanceled))
	require.NoError(t, app.Save(order))

	err := h.cancelOrder(&payment.InvoiceStatus{InvoiceID: "inv-3"})
	require.NoError(t, err)

	for _, ticket := range orderTickets(t, app, order.Id) {
		assert.Equal(t, string(models.TicketPending), ticket.GetString("status"))
	}
}
