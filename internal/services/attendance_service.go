package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go/v7"

	"tickethub/internal/status"
	"tickethub/models"
	"tickethub/monitoring"
)

// AttendanceService redeems tickets at the door. QR payloads are
// "<ticketID>.<signature>" where the signature is an HMAC over the ticket
// id, so a scanner can reject forged codes before any lookup.
type AttendanceService struct {
	app      core.App
	pn       *pubnub.PubNub
	qrSecret string
	channel  string
	logger   *slog.Logger
}

func NewAttendanceService(app core.App, pn *pubnub.PubNub, qrSecret, channel string, logger *slog.Logger) *AttendanceService {
	return &AttendanceService{
		app:      app,
		pn:       pn,
		qrSecret: qrSecret,
		channel:  channel,
		logger:   logger,
	}
}

// TicketQR builds the signed QR payload issued with a ticket.
func TicketQR(ticketID, secret string) string {
	return ticketID + "." + signTicketID(ticketID, secret)
}

// ParseTicketQR verifies a scanned payload and returns the ticket id.
func ParseTicketQR(payload, secret string) (string, error) {
	ticketID, signature, ok := strings.Cut(payload, ".")
	if !ok || ticketID == "" {
		return "", status.ErrInvalidSignature
	}
	expected := signTicketID(ticketID, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", status.ErrInvalidSignature
	}
	return ticketID, nil
}

func signTicketID(ticketID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ticketID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateTicket redeems a scanned QR payload: it verifies the signature,
// checks the ticket is admissible for the event date being scanned, and
// marks it used. eventDateID may be empty to skip the date check.
func (s *AttendanceService) ValidateTicket(ctx context.Context, qrPayload, eventDateID string) (*models.Ticket, error) {
	ticketID, err := ParseTicketQR(qrPayload, s.qrSecret)
	if err != nil {
		monitoring.ValidationResult("bad_signature")
		return nil, err
	}

	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		monitoring.ValidationResult("not_found")
		return nil, status.ErrTicketNotFound
	}

	ticket := &models.Ticket{
		ID:          record.Id,
		OrderID:     record.GetString("order_id"),
		EventID:     record.GetString("event_id"),
		EventDateID: record.GetString("event_date_id"),
		Status:      models.TicketStatus(record.GetString("status")),
	}
	if eventDateID != "" && ticket.EventDateID != eventDateID {
		monitoring.ValidationResult("wrong_date")
		return nil, status.ErrTicketWrongDate
	}

	if !ticket.Admittable() {
		switch ticket.Status {
		case models.TicketUsed:
			monitoring.ValidationResult("already_used")
			return nil, status.ErrTicketUsed
		case models.TicketCancelled:
			monitoring.ValidationResult("cancelled")
			return nil, status.ErrTicketCancelled
		default:
			monitoring.ValidationResult("not_paid")
			return nil, status.ErrTicketNotPaid
		}
	}

	usedAt := time.Now()
	record.Set("status", string(models.TicketUsed))
	record.Set("used_at", usedAt)
	if err := s.app.Save(record); err != nil {
		monitoring.ValidationResult("save_error")
		return nil, fmt.Errorf("mark ticket used: %w", err)
	}
	ticket.Status = models.TicketUsed
	ticket.UsedAt = &usedAt

	monitoring.ValidationResult("ok")
	s.notifyScan(ticket)

	return ticket, nil
}

// notifyScan pushes a realtime scan event to the organizer dashboard
// channel. Failures are logged, never surfaced to the scanner.
func (s *AttendanceService) notifyScan(ticket *models.Ticket) {
	if s.pn == nil {
		return
	}
	go func() {
		_, pnStatus, err := s.pn.Publish().
			Channel(s.channel).
			Message(map[string]any{
				"type":          "ticket_scanned",
				"ticket_id":     ticket.ID,
				"event_id":      ticket.EventID,
				"event_date_id": ticket.EventDateID,
				"used_at":       ticket.UsedAt.UTC().Format(time.RFC3339),
			}).
			Execute()
		if err != nil {
			s.logger.Warn("scan notification failed", "ticket_id", ticket.ID, "error", err)
			return
		}
		if pnStatus.Error != nil {
			s.logger.Warn("scan notification rejected", "ticket_id", ticket.ID, "error", pnStatus.Error)
		}
	}()
}
