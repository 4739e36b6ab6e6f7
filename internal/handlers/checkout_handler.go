package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services"
	"tickethub/internal/status"
	"tickethub/models"
)

type CheckoutHandler struct {
	app      core.App
	checkout *services.CheckoutService
	qrSecret string
	logger   *slog.Logger
}

func NewCheckoutHandler(app core.App, checkout *services.CheckoutService, qrSecret string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		app:      app,
		checkout: checkout,
		qrSecret: qrSecret,
		logger:   logger,
	}
}

// Checkout - create a pending order with tickets and a gateway invoice
func (h *CheckoutHandler) Checkout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.CheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.EventDateID == "" {
		return apis.NewBadRequestError("Event and event date are required", nil)
	}
	if req.Quantity < 1 || req.Quantity > 10 {
		return apis.NewBadRequestError("Quantity must be between 1 and 10", nil)
	}

	result, err := h.checkout.Checkout(e.Request.Context(), e.Auth.Id, &req)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrEventDateSoldOut):
			return apis.NewBadRequestError("Not enough tickets available", nil)
		case errors.Is(err, status.ErrTicketWrongDate):
			return apis.NewBadRequestError("Event date does not belong to this event", nil)
		case errors.Is(err, status.ErrGatewayFailed):
			return apis.NewApiError(http.StatusBadGateway, "Payment gateway unavailable", nil)
		}
		h.logger.Error("checkout failed", "user_id", e.Auth.Id, "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Checkout failed", nil)
	}

	return e.JSON(http.StatusOK, result)
}

// GetOrder - the buyer's order with its tickets and their QR payloads
func (h *CheckoutHandler) GetOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	orderID := e.Request.PathValue("orderId")
	order, err := h.app.FindRecordById("orders", orderID)
	if err != nil {
		return apis.NewNotFoundError("Order not found", nil)
	}
	if order.GetString("user_id") != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	tickets, err := h.app.FindRecordsByFilter(
		"tickets",
		"order_id = {:orderId}",
		"created",
		0, 0,
		dbx.Params{"orderId": orderID},
	)
	if err != nil {
		h.logger.Error("load order tickets failed", "order_id", orderID, "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to load order", nil)
	}

	ticketItems := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		item := map[string]any{
			"id":     t.Id,
			"price":  t.GetFloat("price"),
			"status": t.GetString("status"),
		}
		// QR payloads are only issued once the ticket is admissible.
		if t.GetString("status") == string(models.TicketValid) {
			item["qr_code"] = services.TicketQR(t.Id, h.qrSecret)
		}
		ticketItems = append(ticketItems, item)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"id":             order.Id,
		"reference":      order.GetString("reference"),
		"event_id":       order.GetString("event_id"),
		"event_date_id":  order.GetString("event_date_id"),
		"total_amount":   order.GetFloat("total_amount"),
		"payment_method": order.GetString("payment_method"),
		"status":         order.GetString("status"),
		"created":        order.GetString("created"),
		"tickets":        ticketItems,
	})
}

// ListMyOrders - the buyer's purchase history
func (h *CheckoutHandler) ListMyOrders(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	orders, err := h.app.FindRecordsByFilter(
		"orders",
		"user_id = {:userId}",
		"-created",
		50, 0,
		dbx.Params{"userId": e.Auth.Id},
	)
	if err != nil {
		h.logger.Error("list orders failed", "user_id", e.Auth.Id, "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to list orders", nil)
	}

	items := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		items = append(items, map[string]any{
			"id":           o.Id,
			"reference":    o.GetString("reference"),
			"event_id":     o.GetString("event_id"),
			"total_amount": o.GetFloat("total_amount"),
			"status":       o.GetString("status"),
			"created":      o.GetString("created"),
		})
	}
	return e.JSON(http.StatusOK, map[string]any{"orders": items})
}
