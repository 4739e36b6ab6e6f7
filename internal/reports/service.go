// Package reports builds the admin revenue/attendance reporting views:
// bounded order scans, chunked metadata joins, pure in-memory aggregation,
// and a process-local TTL cache over the full (unpaginated) datasets.
package reports

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/cache"
	"tickethub/internal/status"
	"tickethub/models"
	"tickethub/monitoring"
)

const (
	TableRevenue    = "revenue"
	TableAttendance = "attendance"
)

type Service struct {
	app    core.App
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewService(app core.App, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		app:    app,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// TableResult is one page of a report table plus its pagination metadata.
type TableResult struct {
	Data       any               `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// TableData returns one sorted page of the requested report table. The
// cache holds the full unpaginated dataset keyed by filters only, so page
// and sort changes re-slice the cached rows instead of creating new
// entries per page/sort combination.
func (s *Service) TableData(tableType string, f models.ReportFilters, page, pageSize int, sortBy, sortOrder string) (*TableResult, bool, error) {
	switch tableType {
	case TableRevenue:
		rows, cached, err := s.revenueRows(f)
		if err != nil {
			return nil, false, err
		}
		sortRevenueRows(rows, sortBy, sortOrder)
		window, pagination := paginate(len(rows), page, pageSize)
		return &TableResult{Data: rows[window.start:window.end], Pagination: pagination}, cached, nil

	case TableAttendance:
		rows, cached, err := s.attendanceRows(f)
		if err != nil {
			return nil, false, err
		}
		sortAttendanceRows(rows, sortBy, sortOrder)
		window, pagination := paginate(len(rows), page, pageSize)
		return &TableResult{Data: rows[window.start:window.end], Pagination: pagination}, cached, nil

	default:
		return nil, false, status.ErrUnknownTableType
	}
}

func (s *Service) revenueRows(f models.ReportFilters) ([]models.RevenueRow, bool, error) {
	key := cache.GenerateKey("reports:table:revenue", f.Params())
	if v, ok := s.cache.Get(key); ok {
		monitoring.ReportCacheHit(TableRevenue)
		return cloneRows(v.([]models.RevenueRow)), true, nil
	}
	monitoring.ReportCacheMiss(TableRevenue)

	started := time.Now()
	set, err := fetchAllOrders(s.app, f)
	if err != nil {
		return nil, false, err
	}
	events, err := fetchAllEvents(s.app, set.EventIDs, f)
	if err != nil {
		return nil, false, err
	}
	rows := aggregateRevenue(set.Orders, events)
	monitoring.ObserveReportBuild(TableRevenue, time.Since(started))

	s.cache.Set(key, rows, s.ttl)
	return cloneRows(rows), false, nil
}

func (s *Service) attendanceRows(f models.ReportFilters) ([]models.AttendanceRow, bool, error) {
	key := cache.GenerateKey("reports:table:attendance", f.Params())
	if v, ok := s.cache.Get(key); ok {
		monitoring.ReportCacheHit(TableAttendance)
		return cloneRows(v.([]models.AttendanceRow)), true, nil
	}
	monitoring.ReportCacheMiss(TableAttendance)

	started := time.Now()
	set, err := fetchAllOrders(s.app, f)
	if err != nil {
		return nil, false, err
	}
	events, err := fetchAllEvents(s.app, set.EventIDs, f)
	if err != nil {
		return nil, false, err
	}
	stats, err := fetchTicketStatsByOrder(s.app, set.OrderIDs)
	if err != nil {
		return nil, false, err
	}
	rows := aggregateAttendance(set.Orders, stats, events)
	monitoring.ObserveReportBuild(TableAttendance, time.Since(started))

	s.cache.Set(key, rows, s.ttl)
	return cloneRows(rows), false, nil
}

// SummaryResult carries the dashboard headline numbers and chart series.
type SummaryResult struct {
	Summary models.ReportSummary `json:"summary"`
	Charts  models.ReportCharts  `json:"charts"`
}

// Summary computes the dashboard summary and chart series from the same
// fetch/aggregate primitives as the tables, cached under its own key.
func (s *Service) Summary(f models.ReportFilters) (*SummaryResult, bool, error) {
	key := cache.GenerateKey("reports:summary", f.Params())
	if v, ok := s.cache.Get(key); ok {
		monitoring.ReportCacheHit("summary")
		return v.(*SummaryResult), true, nil
	}
	monitoring.ReportCacheMiss("summary")

	started := time.Now()
	set, err := fetchAllOrders(s.app, f)
	if err != nil {
		return nil, false, err
	}
	events, err := fetchAllEvents(s.app, set.EventIDs, f)
	if err != nil {
		return nil, false, err
	}
	stats, err := fetchTicketStatsByOrder(s.app, set.OrderIDs)
	if err != nil {
		return nil, false, err
	}

	result := buildSummary(set.Orders, stats, events)
	monitoring.ObserveReportBuild("summary", time.Since(started))

	s.cache.Set(key, result, s.ttl)
	return result, false, nil
}

func buildSummary(orders []models.Order, stats map[string]ticketStats, events map[string]models.Event) *SummaryResult {
	var (
		revenue      decimal.Decimal
		totalOrders  int
		totalTickets int
		used, unused int
	)
	ticketsByDay := map[string]int{}

	for _, o := range orders {
		if _, ok := events[o.EventID]; !ok {
			continue
		}
		totalOrders++
		totalTickets += len(o.TicketIDs)
		revenue = revenue.Add(o.TotalAmount)

		s := stats[o.ID]
		used += s.Used
		unused += s.Unused

		day := o.CreatedAt.Format("2006-01-02")
		ticketsByDay[day] += len(o.TicketIDs)
	}

	revenueRows := aggregateRevenue(orders, events)
	sortRevenueRows(revenueRows, "totalRevenue", "desc")

	revenueSeries := make([]models.ChartPoint, 0, len(revenueRows))
	for _, row := range revenueRows {
		revenueSeries = append(revenueSeries, models.ChartPoint{Label: row.EventTitle, Value: row.TotalRevenue})
	}

	days := make([]string, 0, len(ticketsByDay))
	for day := range ticketsByDay {
		days = append(days, day)
	}
	sort.Strings(days)
	daySeries := make([]models.ChartPoint, 0, len(days))
	for _, day := range days {
		daySeries = append(daySeries, models.ChartPoint{Label: day, Value: float64(ticketsByDay[day])})
	}

	return &SummaryResult{
		Summary: models.ReportSummary{
			TotalRevenue:       round2(revenue),
			TotalOrders:        totalOrders,
			TotalTicketsSold:   totalTickets,
			AverageTicketPrice: averageTicketPrice(revenue, totalTickets),
			EventsCount:        len(revenueRows),
			AttendanceRate:     attendancePercentage(used, unused),
		},
		Charts: models.ReportCharts{
			RevenueByEvent: revenueSeries,
			TicketsByDay:   daySeries,
		},
	}
}

// cloneRows copies a cached slice before sorting so concurrent requests
// with different sort orders do not reorder each other's data.
func cloneRows[T any](rows []T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}
