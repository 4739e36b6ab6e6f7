package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services"
	"tickethub/internal/status"
	"tickethub/utils"
)

// Scanner devices authenticate with these headers instead of a user
// session; door hardware has no login flow.
const (
	scannerIDHeader  = "X-Scanner-Id"
	scannerKeyHeader = "X-Scanner-Key"
)

type AttendanceHandler struct {
	app        core.App
	attendance *services.AttendanceService
	logger     *slog.Logger
}

func NewAttendanceHandler(app core.App, attendance *services.AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		app:        app,
		attendance: attendance,
		logger:     logger,
	}
}

// ValidateTicket - redeem a scanned QR code
func (h *AttendanceHandler) ValidateTicket(e *core.RequestEvent) error {
	if err := h.authorizeScan(e); err != nil {
		return err
	}

	var req struct {
		QRCode      string `json:"qr_code"`
		EventDateID string `json:"event_date_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.QRCode == "" {
		return apis.NewBadRequestError("QR code is required", nil)
	}

	ticket, err := h.attendance.ValidateTicket(e.Request.Context(), req.QRCode, req.EventDateID)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrInvalidSignature):
			return apis.NewForbiddenError("Invalid QR code", nil)
		case errors.Is(err, status.ErrTicketNotFound):
			return apis.NewNotFoundError("Ticket not found", nil)
		case errors.Is(err, status.ErrTicketUsed):
			return apis.NewBadRequestError("Ticket already used", nil)
		case errors.Is(err, status.ErrTicketCancelled):
			return apis.NewBadRequestError("Ticket is cancelled", nil)
		case errors.Is(err, status.ErrTicketNotPaid):
			return apis.NewBadRequestError("Ticket is not paid", nil)
		case errors.Is(err, status.ErrTicketWrongDate):
			return apis.NewBadRequestError("Ticket belongs to another event date", nil)
		}
		h.logger.Error("ticket validation failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Validation failed", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Ticket admitted",
		"ticket":  ticket,
	})
}

// authorizeScan accepts either a superuser session or a registered
// scanner device key.
func (h *AttendanceHandler) authorizeScan(e *core.RequestEvent) error {
	if e.Auth != nil && e.Auth.IsSuperuser() {
		return nil
	}

	scannerID := e.Request.Header.Get(scannerIDHeader)
	scannerKey := e.Request.Header.Get(scannerKeyHeader)
	if scannerID == "" || scannerKey == "" {
		return apis.NewUnauthorizedError("Scanner credentials required", nil)
	}

	scanner, err := h.app.FindRecordById("scanners", scannerID)
	if err != nil || !scanner.GetBool("active") {
		return apis.NewForbiddenError("Unknown scanner", nil)
	}
	if !utils.CompareKey(scanner.GetString("key_hash"), scannerKey) {
		return apis.NewForbiddenError("Invalid scanner key", nil)
	}
	return nil
}
