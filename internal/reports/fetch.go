package reports

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/models"
)

const (
	// inQueryLimit is the store's cap on membership-style queries; id sets
	// are chunked to this size and merged client-side.
	inQueryLimit = 10

	// Order scans are bounded so an unfiltered report cannot walk the
	// whole collection: newest 5000 without a date range, 10000 with one.
	maxOrdersUnranged = 5000
	maxOrdersRanged   = 10000
)

// orderSet is the result of an order scan: the orders themselves plus the
// distinct event and order ids referenced, for downstream batch joins.
type orderSet struct {
	Orders   []models.Order
	EventIDs []string
	OrderIDs []string
}

// ticketStats tallies redeemed vs. outstanding tickets for one order.
type ticketStats struct {
	Used   int
	Unused int
}

// fetchAllOrders loads paid orders matching the date/event filters, newest
// first, capped by maxOrdersUnranged/maxOrdersRanged.
func fetchAllOrders(app core.App, f models.ReportFilters) (*orderSet, error) {
	filter := "status = 'paid'"
	params := dbx.Params{}
	limit := maxOrdersUnranged

	if f.StartDate != "" && f.EndDate != "" {
		filter += " && created >= {:start} && created <= {:end}"
		params["start"] = f.StartDate
		params["end"] = normalizeEndDate(f.EndDate)
		limit = maxOrdersRanged
	}
	if f.EventID != "" {
		filter += " && event_id = {:eventId}"
		params["eventId"] = f.EventID
	}

	records, err := app.FindRecordsByFilter("orders", filter, "-created", limit, 0, params)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	set := &orderSet{Orders: make([]models.Order, 0, len(records))}
	seenEvents := map[string]bool{}
	for _, r := range records {
		set.Orders = append(set.Orders, orderFromRecord(r))
		set.OrderIDs = append(set.OrderIDs, r.Id)
		if eventID := r.GetString("event_id"); eventID != "" && !seenEvents[eventID] {
			seenEvents[eventID] = true
			set.EventIDs = append(set.EventIDs, eventID)
		}
	}
	return set, nil
}

// fetchAllEvents joins event metadata for a set of ids, issuing one query
// per chunk of inQueryLimit ids and merging into a single id->event map.
// City and organizer filters are applied per chunk query, so events they
// exclude simply never enter the map.
func fetchAllEvents(app core.App, eventIDs []string, f models.ReportFilters) (map[string]models.Event, error) {
	events := make(map[string]models.Event, len(eventIDs))
	if len(eventIDs) == 0 {
		return events, nil
	}

	for _, chunk := range chunkIDs(eventIDs, inQueryLimit) {
		filter, params := idMembershipFilter(chunk)
		if f.City != "" {
			filter = "(" + filter + ") && city = {:city}"
			params["city"] = f.City
		}
		if f.OrganizerID != "" {
			filter = "(" + filter + ") && organizer_id = {:organizerId}"
			params["organizerId"] = f.OrganizerID
		}

		records, err := app.FindRecordsByFilter("events", filter, "", 0, 0, params)
		if err != nil {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		for _, r := range records {
			events[r.Id] = models.Event{
				ID:          r.Id,
				Title:       r.GetString("title"),
				Description: r.GetString("description"),
				City:        r.GetString("city"),
				Venue:       r.GetString("venue"),
				OrganizerID: r.GetString("organizer_id"),
				Status:      r.GetString("status"),
			}
		}
	}
	return events, nil
}

// fetchTicketStatsByOrder tallies used vs. unused tickets per order. Only
// the status and order id columns are selected, and the chunked queries
// fan out in parallel since each covers a disjoint id set.
func fetchTicketStatsByOrder(app core.App, orderIDs []string) (map[string]ticketStats, error) {
	stats := make(map[string]ticketStats, len(orderIDs))
	if len(orderIDs) == 0 {
		return stats, nil
	}

	type ticketRow struct {
		Status  string `db:"status"`
		OrderID string `db:"order_id"`
	}

	chunks := chunkIDs(orderIDs, inQueryLimit)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(ids []string) {
			defer wg.Done()

			args := make([]any, len(ids))
			for i, id := range ids {
				args[i] = id
			}

			var rows []ticketRow
			err := app.DB().
				Select("status", "order_id").
				From("tickets").
				Where(dbx.In("order_id", args...)).
				All(&rows)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("fetch ticket stats: %w", err)
				}
				return
			}
			for _, row := range rows {
				s := stats[row.OrderID]
				if row.Status == string(models.TicketUsed) {
					s.Used++
				} else {
					s.Unused++
				}
				stats[row.OrderID] = s
			}
		}(chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// normalizeEndDate widens a date-only end bound to the end of that day,
// so orders created during the last day of the range stay inside it.
// Stored timestamps ("2006-01-02 15:04:05.000Z") compare greater than the
// bare date otherwise.
func normalizeEndDate(end string) string {
	if len(end) == len("2006-01-02") {
		return end + " 23:59:59.999Z"
	}
	return end
}

// chunkIDs splits ids into windows of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// idMembershipFilter builds an OR-chain filter over record ids, the
// store's equivalent of an IN clause.
func idMembershipFilter(ids []string) (string, dbx.Params) {
	parts := make([]string, len(ids))
	params := dbx.Params{}
	for i, id := range ids {
		key := fmt.Sprintf("id%d", i)
		parts[i] = fmt.Sprintf("id = {:%s}", key)
		params[key] = id
	}
	return strings.Join(parts, " || "), params
}

func orderFromRecord(r *core.Record) models.Order {
	return models.Order{
		ID:            r.Id,
		Reference:     r.GetString("reference"),
		UserID:        r.GetString("user_id"),
		EventID:       r.GetString("event_id"),
		EventDateID:   r.GetString("event_date_id"),
		TotalAmount:   decimal.NewFromFloat(r.GetFloat("total_amount")),
		PaymentMethod: r.GetString("payment_method"),
		InvoiceID:     r.GetString("invoice_id"),
		Status:        models.OrderStatus(r.GetString("status")),
		TicketIDs:     r.GetStringSlice("ticket_ids"),
		CreatedAt:     r.GetDateTime("created").Time(),
	}
}
