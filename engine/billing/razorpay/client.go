// Package razorpay is a minimal client for the Razorpay orders API and its
// webhook payloads.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 10 * time.Second
	defaultBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

type Config struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the first retry delay. It doubles up to five seconds.
	Backoff time.Duration
}

type Client struct {
	http       *resty.Client
	maxRetries uint64
	backoff    time.Duration
}

func New(cfg Config) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: client, maxRetries: uint64(retries), backoff: backoff}, nil // #nosec G115 -- clamped above
}

type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID         string            `json:"id"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Notes      map[string]string `json:"notes"`
	CreatedAt  int64             `json:"created_at"`
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Temporary reports whether retrying may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// CreateOrder opens an order. Transport failures, 429 and 5xx answers are
// retried with exponential backoff; the receipt keeps retries idempotent.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	b := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(maxBackoff, retry.NewExponential(c.backoff)))
	return retry.DoValue(ctx, b, func(ctx context.Context) (*Order, error) {
		var order Order
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&order).
			Post("/v1/orders")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, retry.RetryableError(fmt.Errorf("creating razorpay order: %w", err))
		}
		if resp.IsError() {
			apiErr := parseError(resp)
			if apiErr.Temporary() {
				return nil, retry.RetryableError(apiErr)
			}
			return nil, apiErr
		}
		if order.ID == "" {
			return nil, fmt.Errorf("razorpay order response without id")
		}
		return &order, nil
	})
}

func parseError(resp *resty.Response) *APIError {
	body := resp.Body()
	apiErr := &APIError{
		StatusCode:  resp.StatusCode(),
		Code:        gjson.GetBytes(body, "error.code").String(),
		Description: gjson.GetBytes(body, "error.description").String(),
	}
	if apiErr.Description == "" {
		apiErr.Description = http.StatusText(resp.StatusCode())
	}
	return apiErr
}
