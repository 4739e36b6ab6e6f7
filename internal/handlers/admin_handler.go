package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/utils"
)

// AdminHandler serves the dashboard's members/reservations views and
// scanner device management. Admin-only routing is enforced by the
// superuser middleware bound on the /api/admin group.
type AdminHandler struct {
	app    core.App
	logger *slog.Logger
}

func NewAdminHandler(app core.App, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		app:    app,
		logger: logger,
	}
}

// ListMembers - paginated member list with per-member order counts
func (h *AdminHandler) ListMembers(e *core.RequestEvent) error {
	q := e.Request.URL.Query()
	page, pageSize := parsePagination(e)

	filter := "id != ''"
	params := dbx.Params{}
	if search := q.Get("search"); search != "" {
		filter = "(name ~ {:search} || email ~ {:search})"
		params["search"] = search
	}

	users, err := h.app.FindRecordsByFilter(
		"users",
		filter,
		"-created",
		pageSize,
		(page-1)*pageSize,
		params,
	)
	if err != nil {
		h.logger.Error("list members failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to list members", nil)
	}

	orderCounts, err := h.orderCountsByUser(users)
	if err != nil {
		h.logger.Error("count member orders failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to list members", nil)
	}

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		items = append(items, map[string]any{
			"id":           u.Id,
			"name":         u.GetString("name"),
			"email":        u.GetString("email"),
			"created":      u.GetString("created"),
			"orders_count": orderCounts[u.Id],
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"members":  items,
		"page":     page,
		"pageSize": pageSize,
	})
}

// ListReservations - paginated order list with buyer/event names joined
func (h *AdminHandler) ListReservations(e *core.RequestEvent) error {
	q := e.Request.URL.Query()
	page, pageSize := parsePagination(e)

	filter := "id != ''"
	params := dbx.Params{}
	if status := q.Get("status"); status != "" {
		filter += " && status = {:status}"
		params["status"] = status
	}
	if eventID := q.Get("eventId"); eventID != "" {
		filter += " && event_id = {:eventId}"
		params["eventId"] = eventID
	}

	orders, err := h.app.FindRecordsByFilter(
		"orders",
		filter,
		"-created",
		pageSize,
		(page-1)*pageSize,
		params,
	)
	if err != nil {
		h.logger.Error("list reservations failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to list reservations", nil)
	}

	items := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		item := map[string]any{
			"id":             o.Id,
			"reference":      o.GetString("reference"),
			"total_amount":   o.GetFloat("total_amount"),
			"payment_method": o.GetString("payment_method"),
			"status":         o.GetString("status"),
			"tickets":        len(o.GetStringSlice("ticket_ids")),
			"created":        o.GetString("created"),
		}
		if buyer, err := h.app.FindRecordById("users", o.GetString("user_id")); err == nil {
			item["buyer_name"] = buyer.GetString("name")
			item["buyer_email"] = buyer.GetString("email")
		}
		if event, err := h.app.FindRecordById("events", o.GetString("event_id")); err == nil {
			item["event_title"] = event.GetString("title")
		}
		items = append(items, item)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reservations": items,
		"page":         page,
		"pageSize":     pageSize,
	})
}

// RegisterScanner - create a scanner device; the key is shown only once
func (h *AdminHandler) RegisterScanner(e *core.RequestEvent) error {
	var req struct {
		Label   string `json:"label"`
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Label == "" {
		return apis.NewBadRequestError("Label is required", nil)
	}

	key, err := utils.GenerateCode(16)
	if err != nil {
		h.logger.Error("generate scanner key failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to register scanner", nil)
	}
	keyHash, err := utils.HashKey(key)
	if err != nil {
		h.logger.Error("hash scanner key failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to register scanner", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("scanners")
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Failed to register scanner", nil)
	}
	scanner := core.NewRecord(collection)
	scanner.Set("label", req.Label)
	scanner.Set("event_id", req.EventID)
	scanner.Set("key_hash", keyHash)
	scanner.Set("active", true)
	if err := h.app.Save(scanner); err != nil {
		h.logger.Error("save scanner failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to register scanner", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"id":    scanner.Id,
		"label": req.Label,
		"key":   key,
	})
}

// orderCountsByUser counts orders per buyer with a single grouped query.
func (h *AdminHandler) orderCountsByUser(users []*core.Record) (map[string]int, error) {
	counts := map[string]int{}
	if len(users) == 0 {
		return counts, nil
	}

	args := make([]any, len(users))
	for i, u := range users {
		args[i] = u.Id
	}

	var rows []struct {
		UserID string `db:"user_id"`
		Total  int    `db:"total"`
	}
	err := h.app.DB().
		Select("user_id", "COUNT(*) AS total").
		From("orders").
		Where(dbx.In("user_id", args...)).
		GroupBy("user_id").
		All(&rows)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}
