package status

import "errors"

var (
	ErrUnknownTableType = errors.New("reports: unknown table type")

	ErrOrderNotFound    = errors.New("order: order not found")
	ErrEventDateSoldOut = errors.New("event date: not enough availability")

	ErrTicketNotFound  = errors.New("ticket: ticket not found")
	ErrTicketUsed      = errors.New("ticket: ticket already used")
	ErrTicketCancelled = errors.New("ticket: ticket cancelled")
	ErrTicketNotPaid   = errors.New("ticket: order not paid yet")
	ErrTicketWrongDate = errors.New("ticket: ticket belongs to another event date")

	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrGatewayFailed    = errors.New("payment: gateway request failed")
)
