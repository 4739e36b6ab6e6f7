package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderCanceled OrderStatus = "canceled"
	OrderRefunded OrderStatus = "refunded"
)

type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketValid     TicketStatus = "valid"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Order is a customer's purchase covering one or more tickets for one event.
// Orders are never hard-deleted; status transitions instead.
type Order struct {
	ID            string          `json:"id"`
	Reference     string          `json:"reference"`
	UserID        string          `json:"user_id"`
	EventID       string          `json:"event_id"`
	EventDateID   string          `json:"event_date_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	InvoiceID     string          `json:"invoice_id"`
	Status        OrderStatus     `json:"status"`
	TicketIDs     []string        `json:"ticket_ids"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Ticket is a single admission unit tied to an order and an event date.
type Ticket struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	EventID     string          `json:"event_id"`
	EventDateID string          `json:"event_date_id"`
	Price       decimal.Decimal `json:"price"`
	Status      TicketStatus    `json:"status"`
	UsedAt      *time.Time      `json:"used_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (s OrderStatus) IsFinal() bool {
	return s == OrderCanceled || s == OrderRefunded
}

// Admittable reports whether the ticket may still be redeemed at the door.
func (t *Ticket) Admittable() bool {
	return t.Status == TicketValid
}
