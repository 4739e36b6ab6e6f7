package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/reports"
	"tickethub/internal/status"
	"tickethub/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ReportHandler struct {
	reports *reports.Service
	logger  *slog.Logger
}

func NewReportHandler(reportService *reports.Service, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reportService,
		logger:  logger,
	}
}

// GetSummary - dashboard summary numbers and chart series
func (h *ReportHandler) GetSummary(e *core.RequestEvent) error {
	filters := parseReportFilters(e)

	result, cached, err := h.reports.Summary(filters)
	if err != nil {
		h.logger.Error("report summary failed", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to build report", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"summary": result.Summary,
		"charts":  result.Charts,
		"cached":  cached,
	})
}

// GetTable - one sorted page of the revenue or attendance table
func (h *ReportHandler) GetTable(e *core.RequestEvent) error {
	tableType := e.Request.URL.Query().Get("type")
	filters := parseReportFilters(e)
	page, pageSize := parsePagination(e)
	sortBy := e.Request.URL.Query().Get("sortBy")
	sortOrder := e.Request.URL.Query().Get("sortOrder")

	result, cached, err := h.reports.TableData(tableType, filters, page, pageSize, sortBy, sortOrder)
	if err != nil {
		if errors.Is(err, status.ErrUnknownTableType) {
			return apis.NewBadRequestError("Unknown table type", nil)
		}
		h.logger.Error("report table failed", "type", tableType, "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Failed to build report", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"data":       result.Data,
		"pagination": result.Pagination,
		"cached":     cached,
	})
}

func parseReportFilters(e *core.RequestEvent) models.ReportFilters {
	q := e.Request.URL.Query()
	return models.ReportFilters{
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
		EventID:     q.Get("eventId"),
		City:        q.Get("city"),
		OrganizerID: q.Get("organizerId"),
	}
}

// parsePagination clamps page/pageSize query params to sane ranges.
func parsePagination(e *core.RequestEvent) (int, int) {
	q := e.Request.URL.Query()

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = v
	}
	pageSize := defaultPageSize
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil && v >= 1 {
		pageSize = v
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}
	return page, pageSize
}
