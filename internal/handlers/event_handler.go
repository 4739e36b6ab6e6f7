package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	app    core.App
	logger *slog.Logger
}

func NewEventHandler(app core.App, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		app:    app,
		logger: logger,
	}
}

// ListEvents - browse published events, optionally by city
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	q := e.Request.URL.Query()
	page, pageSize := parsePagination(e)

	filter := "status = 'published'"
	params := dbx.Params{}
	if city := q.Get("city"); city != "" {
		filter += " && city = {:city}"
		params["city"] = city
	}

	records, err := h.app.FindRecordsByFilter(
		"events",
		filter,
		"-created",
		pageSize,
		(page-1)*pageSize,
		params,
	)
	if err != nil {
		h.logger.Error("list events failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to list events", nil)
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		event, err := h.eventWithDates(record)
		if err != nil {
			h.logger.Error("expand event dates failed", "event_id", record.Id, "error", err)
			return apis.NewApiError(http.StatusInternalServerError, "Failed to list events", nil)
		}
		items = append(items, event)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"events":   items,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetEvent - one event with its dates and availability
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID is required", nil)
	}

	record, err := h.app.FindRecordById("events", eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}

	event, err := h.eventWithDates(record)
	if err != nil {
		h.logger.Error("expand event dates failed", "event_id", eventID, "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to load event", nil)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) eventWithDates(record *core.Record) (map[string]any, error) {
	dates, err := h.app.FindRecordsByFilter(
		"event_dates",
		"event_id = {:eventId}",
		"date",
		0, 0,
		dbx.Params{"eventId": record.Id},
	)
	if err != nil {
		return nil, err
	}

	dateItems := make([]map[string]any, 0, len(dates))
	for _, d := range dates {
		dateItems = append(dateItems, map[string]any{
			"id":         d.Id,
			"date":       d.GetString("date"),
			"start_time": d.GetString("start_time"),
			"end_time":   d.GetString("end_time"),
			"price":      d.GetFloat("price"),
			"capacity":   d.GetInt("capacity"),
			"available":  d.GetInt("available"),
		})
	}

	return map[string]any{
		"id":          record.Id,
		"title":       record.GetString("title"),
		"description": record.GetString("description"),
		"city":        record.GetString("city"),
		"venue":       record.GetString("venue"),
		"status":      record.GetString("status"),
		"dates":       dateItems,
	}, nil
}
