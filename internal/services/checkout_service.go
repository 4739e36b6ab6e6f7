package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tickethub/internal/services/payment"
	"tickethub/internal/status"
	"tickethub/models"
	"tickethub/monitoring"
)

// CheckoutService turns a validated checkout request into a pending order
// with its tickets, an availability decrement, and a gateway invoice. A
// short-lived redis hold covers the gap between the availability check and
// the transactional decrement, so two buyers cannot both claim the last
// seats of an event date.
type CheckoutService struct {
	app     core.App
	redis   *redis.Client
	gateway *payment.Client
	holdTTL time.Duration
	logger  *slog.Logger
}

func NewCheckoutService(app core.App, redisClient *redis.Client, gateway *payment.Client, holdTTL time.Duration, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		app:     app,
		redis:   redisClient,
		gateway: gateway,
		holdTTL: holdTTL,
		logger:  logger,
	}
}

type CheckoutRequest struct {
	EventID     string `json:"event_id"`
	EventDateID string `json:"event_date_id"`
	Quantity    int    `json:"quantity"`
}

type CheckoutResult struct {
	OrderID    string          `json:"order_id"`
	Reference  string          `json:"reference"`
	InvoiceID  string          `json:"invoice_id"`
	PaymentURL string          `json:"payment_url"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *CheckoutService) Checkout(ctx context.Context, userID string, req *CheckoutRequest) (*CheckoutResult, error) {
	dateRecord, err := s.app.FindRecordById("event_dates", req.EventDateID)
	if err != nil {
		return nil, fmt.Errorf("find event date: %w", err)
	}
	eventDate := &models.EventDate{
		ID:        dateRecord.Id,
		EventID:   dateRecord.GetString("event_id"),
		Available: dateRecord.GetInt("available"),
	}
	if eventDate.EventID != req.EventID {
		return nil, status.ErrTicketWrongDate
	}
	if eventDate.SoldOut() {
		monitoring.CheckoutResult("sold_out")
		return nil, status.ErrEventDateSoldOut
	}

	if err := s.placeHold(ctx, req.EventDateID, req.Quantity, eventDate.Available); err != nil {
		monitoring.CheckoutResult("sold_out")
		return nil, err
	}
	defer s.releaseHold(ctx, req.EventDateID, req.Quantity)

	price := decimal.NewFromFloat(dateRecord.GetFloat("price"))
	total := price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	reference := uuid.NewString()

	user, err := s.app.FindRecordById("users", userID)
	if err != nil {
		return nil, fmt.Errorf("find buyer: %w", err)
	}

	var orderID string
	err = s.app.RunInTransaction(func(txApp core.App) error {
		orders, err := txApp.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		tickets, err := txApp.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		order := core.NewRecord(orders)
		order.Set("reference", reference)
		order.Set("user_id", userID)
		order.Set("event_id", req.EventID)
		order.Set("event_date_id", req.EventDateID)
		order.Set("total_amount", total.InexactFloat64())
		order.Set("status", string(models.OrderPending))
		if err := txApp.Save(order); err != nil {
			return err
		}
		orderID = order.Id

		ticketIDs := make([]string, 0, req.Quantity)
		for i := 0; i < req.Quantity; i++ {
			ticket := core.NewRecord(tickets)
			ticket.Set("order_id", order.Id)
			ticket.Set("event_id", req.EventID)
			ticket.Set("event_date_id", req.EventDateID)
			ticket.Set("price", price.InexactFloat64())
			ticket.Set("status", string(models.TicketPending))
			if err := txApp.Save(ticket); err != nil {
				return err
			}
			ticketIDs = append(ticketIDs, ticket.Id)
		}
		order.Set("ticket_ids", ticketIDs)
		if err := txApp.Save(order); err != nil {
			return err
		}

		date, err := txApp.FindRecordById("event_dates", req.EventDateID)
		if err != nil {
			return err
		}
		remaining := date.GetInt("available") - req.Quantity
		if remaining < 0 {
			return status.ErrEventDateSoldOut
		}
		date.Set("available", remaining)
		return txApp.Save(date)
	})
	if err != nil {
		monitoring.CheckoutResult("failed")
		return nil, fmt.Errorf("create order: %w", err)
	}

	invoice, err := s.gateway.SendPayment(ctx, &payment.InvoiceRequest{
		CustomerName:    user.GetString("name"),
		CustomerEmail:   user.GetString("email"),
		InvoiceValue:    total,
		ClientReference: reference,
	})
	if err != nil {
		// The order stays pending; the buyer can retry payment from the
		// order page, so this is not rolled back.
		monitoring.CheckoutResult("gateway_error")
		return nil, err
	}

	orderRecord, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	orderRecord.Set("invoice_id", invoice.InvoiceID)
	if err := s.app.Save(orderRecord); err != nil {
		return nil, fmt.Errorf("attach invoice: %w", err)
	}

	monitoring.CheckoutResult("ok")
	s.logger.Info("checkout created",
		"order_id", orderID,
		"reference", reference,
		"event_id", req.EventID,
		"quantity", req.Quantity,
	)

	return &CheckoutResult{
		OrderID:    orderID,
		Reference:  reference,
		InvoiceID:  invoice.InvoiceID,
		PaymentURL: invoice.PaymentURL,
		Amount:     total,
	}, nil
}

// placeHold reserves qty admissions against an event date for the duration
// of checkout. Held counts live in redis with a TTL so abandoned checkouts
// free themselves.
func (s *CheckoutService) placeHold(ctx context.Context, eventDateID string, qty, available int) error {
	key := holdKey(eventDateID)

	held, err := s.redis.IncrBy(ctx, key, int64(qty)).Result()
	if err != nil {
		return fmt.Errorf("place hold: %w", err)
	}
	s.redis.Expire(ctx, key, s.holdTTL)

	if held > int64(available) {
		s.redis.DecrBy(ctx, key, int64(qty))
		return status.ErrEventDateSoldOut
	}
	return nil
}

func (s *CheckoutService) releaseHold(ctx context.Context, eventDateID string, qty int) {
	if err := s.redis.DecrBy(ctx, holdKey(eventDateID), int64(qty)).Err(); err != nil {
		s.logger.Warn("release hold failed", "event_date_id", eventDateID, "error", err)
	}
}

func holdKey(eventDateID string) string {
	return fmt.Sprintf("hold:eventdate:%s", eventDateID)
}
