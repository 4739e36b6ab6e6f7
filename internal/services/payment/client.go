// Package payment holds the MyFatoorah gateway client and the webhook
// signature verification used to reconcile order/ticket status.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tickethub/internal/status"
	"tickethub/utils"
)

type ClientConfig struct {
	// BaseURL is the gateway API root, e.g. https://apitest.myfatoorah.com.
	BaseURL string

	// APIToken is the merchant bearer token.
	APIToken string

	Timeout time.Duration
}

type Client struct {
	baseURL  string
	apiToken string

	hc *http.Client
	cb *utils.CircuitBreaker
}

func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		hc:       &http.Client{Timeout: timeout},
		cb:       utils.NewCircuitBreaker("payment-gateway"),
	}
}

// InvoiceStatus values as the gateway reports them.
const (
	StatusPending = "Pending"
	StatusPaid    = "Paid"
	StatusFailed  = "Failed"
	StatusExpired = "Expired"
)

type InvoiceRequest struct {
	CustomerName    string          `json:"CustomerName"`
	CustomerEmail   string          `json:"CustomerEmail"`
	InvoiceValue    decimal.Decimal `json:"InvoiceValue"`
	DisplayCurrency string          `json:"DisplayCurrencyIso"`
	CallbackURL     string          `json:"CallBackUrl"`
	ErrorURL        string          `json:"ErrorUrl"`
	ClientReference string          `json:"CustomerReference"`
}

type Invoice struct {
	InvoiceID  string `json:"InvoiceId"`
	PaymentURL string `json:"InvoiceURL"`
}

type InvoiceStatus struct {
	InvoiceID     string          `json:"InvoiceId"`
	Status        string          `json:"InvoiceStatus"`
	PaymentMethod string          `json:"PaymentGateway"`
	InvoiceValue  decimal.Decimal `json:"InvoiceValue"`
	Reference     string          `json:"CustomerReference"`
}

// SendPayment creates a gateway invoice and returns its id and hosted
// payment page URL.
func (c *Client) SendPayment(ctx context.Context, req *InvoiceRequest) (*Invoice, error) {
	var out struct {
		IsSuccess bool    `json:"IsSuccess"`
		Message   string  `json:"Message"`
		Data      Invoice `json:"Data"`
	}
	if err := c.post(ctx, "/v2/SendPayment", req, &out); err != nil {
		return nil, err
	}
	if !out.IsSuccess {
		return nil, fmt.Errorf("%w: %s", status.ErrGatewayFailed, out.Message)
	}
	return &out.Data, nil
}

// GetPaymentStatus polls the gateway for the current status of an invoice.
// The webhook payload is advisory only; this poll is the authoritative
// check before any order transitions.
func (c *Client) GetPaymentStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error) {
	req := map[string]string{
		"Key":     invoiceID,
		"KeyType": "InvoiceId",
	}

	var out struct {
		IsSuccess bool          `json:"IsSuccess"`
		Message   string        `json:"Message"`
		Data      InvoiceStatus `json:"Data"`
	}
	if err := c.post(ctx, "/v2/GetPaymentStatus", req, &out); err != nil {
		return nil, err
	}
	if !out.IsSuccess {
		return nil, fmt.Errorf("%w: %s", status.ErrGatewayFailed, out.Message)
	}
	return &out.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.cb.Execute(ctx, func() error {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal gateway request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build gateway request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiToken)

		resp, err := c.hc.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", status.ErrGatewayFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: unexpected status %d", status.ErrGatewayFailed, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
		return nil
	})
}
