package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services/payment"
	"tickethub/internal/status"
	"tickethub/models"
	"tickethub/monitoring"
)

// WebhookHandler reconciles order/ticket status from gateway callbacks.
// The webhook body is advisory: the signature proves the sender, then the
// gateway is polled for the authoritative invoice status before anything
// transitions.
type WebhookHandler struct {
	app     core.App
	gateway *payment.Client
	secret  string
	logger  *slog.Logger
}

func NewWebhookHandler(app core.App, gateway *payment.Client, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		app:     app,
		gateway: gateway,
		secret:  secret,
		logger:  logger,
	}
}

type webhookPayload struct {
	Event string `json:"Event"`
	Data  struct {
		InvoiceID string `json:"InvoiceId"`
	} `json:"Data"`
}

// HandlePaymentWebhook - POST /api/payment/webhook
func (h *WebhookHandler) HandlePaymentWebhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		monitoring.WebhookResult("read_error")
		return apis.NewBadRequestError("Unreadable body", nil)
	}

	signature := e.Request.Header.Get(payment.SignatureHeader)
	if !payment.VerifySignature(body, h.secret, signature) {
		monitoring.WebhookResult("bad_signature")
		h.logger.Warn("webhook rejected: invalid signature", "ip", e.RealIP())
		return apis.NewForbiddenError("Invalid signature", nil)
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		monitoring.WebhookResult("bad_payload")
		return apis.NewBadRequestError("Malformed payload", nil)
	}

	// Only payment events carry invoice transitions; everything else is
	// acknowledged and dropped.
	if payload.Event != "payment" || payload.Data.InvoiceID == "" {
		monitoring.WebhookResult("ignored")
		return e.String(http.StatusOK, "OK")
	}

	invoice, err := h.gateway.GetPaymentStatus(e.Request.Context(), payload.Data.InvoiceID)
	if err != nil {
		monitoring.WebhookResult("gateway_error")
		h.logger.Error("webhook: gateway poll failed", "invoice_id", payload.Data.InvoiceID, "error", err)
		return apis.NewApiError(http.StatusBadGateway, "Payment gateway unavailable", nil)
	}

	switch invoice.Status {
	case payment.StatusPaid:
		if err := h.markOrderPaid(invoice); err != nil {
			monitoring.WebhookResult("reconcile_error")
			h.logger.Error("webhook: reconcile failed", "invoice_id", invoice.InvoiceID, "error", err)
			return apis.NewApiError(http.StatusInternalServerError, "Reconciliation failed", nil)
		}
		monitoring.WebhookResult("paid")

	case payment.StatusFailed, payment.StatusExpired:
		if err := h.cancelOrder(invoice); err != nil {
			monitoring.WebhookResult("reconcile_error")
			h.logger.Error("webhook: cancel failed", "invoice_id", invoice.InvoiceID, "error", err)
			return apis.NewApiError(http.StatusInternalServerError, "Reconciliation failed", nil)
		}
		monitoring.WebhookResult("canceled")

	default:
		monitoring.WebhookResult("pending")
	}

	return e.String(http.StatusOK, "OK")
}

// markOrderPaid transitions the order and every one of its tickets in one
// transaction, so an order can never be paid while tickets stay pending.
func (h *WebhookHandler) markOrderPaid(invoice *payment.InvoiceStatus) error {
	order, err := h.findOrderByInvoice(invoice.InvoiceID)
	if err != nil {
		return err
	}
	if order.GetString("status") == string(models.OrderPaid) {
		// Gateways redeliver; a paid order is already reconciled.
		return nil
	}

	return h.app.RunInTransaction(func(txApp core.App) error {
		order.Set("status", string(models.OrderPaid))
		order.Set("payment_method", invoice.PaymentMethod)
		order.Set("paid_at", time.Now())
		if err := txApp.Save(order); err != nil {
			return err
		}

		tickets, err := txApp.FindRecordsByFilter(
			"tickets",
			"order_id = {:orderId}",
			"", 0, 0,
			map[string]any{"orderId": order.Id},
		)
		if err != nil {
			return err
		}
		for _, ticket := range tickets {
			ticket.Set("status", string(models.TicketValid))
			if err := txApp.Save(ticket); err != nil {
				return err
			}
		}
		return nil
	})
}

// cancelOrder marks the order canceled, cancels its tickets, and returns
// the admissions to the event date's availability, all in one transaction.
func (h *WebhookHandler) cancelOrder(invoice *payment.InvoiceStatus) error {
	order, err := h.findOrderByInvoice(invoice.InvoiceID)
	if err != nil {
		return err
	}
	if models.OrderStatus(order.GetString("status")).IsFinal() {
		return nil
	}

	return h.app.RunInTransaction(func(txApp core.App) error {
		order.Set("status", string(models.OrderCanceled))
		if err := txApp.Save(order); err != nil {
			return err
		}

		tickets, err := txApp.FindRecordsByFilter(
			"tickets",
			"order_id = {:orderId}",
			"", 0, 0,
			map[string]any{"orderId": order.Id},
		)
		if err != nil {
			return err
		}
		for _, ticket := range tickets {
			ticket.Set("status", string(models.TicketCancelled))
			if err := txApp.Save(ticket); err != nil {
				return err
			}
		}

		date, err := txApp.FindRecordById("event_dates", order.GetString("event_date_id"))
		if err != nil {
			return err
		}
		date.Set("available", date.GetInt("available")+len(tickets))
		return txApp.Save(date)
	})
}

func (h *WebhookHandler) findOrderByInvoice(invoiceID string) (*core.Record, error) {
	order, err := h.app.FindFirstRecordByFilter(
		"orders",
		"invoice_id = {:invoiceId}",
		map[string]any{"invoiceId": invoiceID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %s", status.ErrOrderNotFound, invoiceID)
	}
	return order, nil
}
