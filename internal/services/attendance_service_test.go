package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/status"
	"tickethub/models"
)

const testQRSecret = "qr-secret"

func TestTicketQR_RoundTrip(t *testing.T) {
	payload := TicketQR("ticket-123", testQRSecret)

	ticketID, err := ParseTicketQR(payload, testQRSecret)
	require.NoError(t, err)
	assert.Equal(t, "ticket-123", ticketID)
}

func TestParseTicketQR_TamperedID(t *testing.T) {
	payload := TicketQR("ticket-123", testQRSecret)
	forged := strings.Replace(payload, "ticket-123", "ticket-999", 1)

	_, err := ParseTicketQR(forged, testQRSecret)
	assert.ErrorIs(t, err, status.ErrInvalidSignature)
}

func TestParseTicketQR_WrongSecret(t *testing.T) {
	payload := TicketQR("ticket-123", "other-secret")

	_, err := ParseTicketQR(payload, testQRSecret)
	assert.ErrorIs(t, err, status.ErrInvalidSignature)
}

func TestParseTicketQR_Malformed(t *testing.T) {
	for _, payload := range []string{"", "no-separator", ".sig-only"} {
		_, err := ParseTicketQR(payload, testQRSecret)
		assert.ErrorIs(t, err, status.ErrInvalidSignature, "payload %q", payload)
	}
}

func setupAttendanceApp(t *testing.T) *tests.TestApp {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	tickets := core.NewBaseCollection("tickets")
	tickets.Fields.Add(
		&core.TextField{Name: "order_id", Max: 50},
		&core.TextField{Name: "event_id", Max: 50},
		&core.TextField{Name: "event_date_id", Max: 50},
		&core.SelectField{
			Name:      "status",
			MaxSelect: 1,
			Values:    []string{"pending", "valid", "used", "cancelled"},
		},
		&core.DateField{Name: "used_at"},
	)
	require.NoError(t, app.Save(tickets))

	return app
}

func newTicketRecord(t *testing.T, app core.App, ticketStatus models.TicketStatus, eventDateID string) *core.Record {
	collection, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Set("order_id", "order-1")
	record.Set("event_id", "ev-1")
	record.Set("event_date_id", eventDateID)
	record.Set("status", string(ticketStatus))
	require.NoError(t, app.Save(record))
	return record
}

func newTestAttendanceService(app core.App) *AttendanceService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAttendanceService(app, nil, testQRSecret, "", logger)
}

func TestAttendanceService_ValidateTicket_AdmitsValidTicket(t *testing.T) {
	app := setupAttendanceApp(t)
	record := newTicketRecord(t, app, models.TicketValid, "date-1")
	service := newTestAttendanceService(app)

	ticket, err := service.ValidateTicket(context.Background(), TicketQR(record.Id, testQRSecret), "date-1")

	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, ticket.Status)
	require.NotNil(t, ticket.UsedAt)

	stored, err := app.FindRecordById("tickets", record.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.TicketUsed), stored.GetString("status"))
	assert.NotEmpty(t, stored.GetString("used_at"))
}

func TestAttendanceService_ValidateTicket_RejectsNonAdmittableStatuses(t *testing.T) {
	app := setupAttendanceApp(t)
	service := newTestAttendanceService(app)

	cases := []struct {
		ticketStatus models.TicketStatus
		wantErr      error
	}{
		{models.TicketUsed, status.ErrTicketUsed},
		{models.TicketCancelled, status.ErrTicketCancelled},
		{models.TicketPending, status.ErrTicketNotPaid},
	}
	for _, tc := range cases {
		record := newTicketRecord(t, app, tc.ticketStatus, "date-1")

		_, err := service.ValidateTicket(context.Background(), TicketQR(record.Id, testQRSecret), "")
		require.ErrorIs(t, err, tc.wantErr, "status %s", tc.ticketStatus)

		// A rejected ticket must keep its status.
		stored, err := app.FindRecordById("tickets", record.Id)
		require.NoError(t, err)
		assert.Equal(t, string(tc.ticketStatus), stored.GetString("status"))
	}
}

func TestAttendanceService_ValidateTicket_WrongEventDate(t *testing.T) {
	app := setupAttendanceApp(t)
	record := newTicketRecord(t, app, models.TicketValid, "date-1")
	service := newTestAttendanceService(app)

	_, err := service.ValidateTicket(context.Background(), TicketQR(record.Id, testQRSecret), "date-2")
	require.ErrorIs(t, err, status.ErrTicketWrongDate)
}
