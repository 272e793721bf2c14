package razorpay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{
		BaseURL:    srv.URL,
		KeyID:      "rzp_test_key",
		KeySecret:  "rzp_test_secret",
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestCreateOrder(t *testing.T) {
	t.Run("Should post the order with basic auth", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "rzp_test_secret", pass)
			var body OrderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(299900), body.Amount)
			assert.Equal(t, "starter", body.Notes["plan"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"order_123","amount":299900,"currency":"INR","receipt":"r-1","status":"created"}`))
		})
		order, err := client.CreateOrder(t.Context(), &OrderRequest{
			Amount:   299900,
			Currency: "INR",
			Receipt:  "r-1",
			Notes:    map[string]string{"plan": "starter"},
		})
		require.NoError(t, err)
		assert.Equal(t, "order_123", order.ID)
		assert.Equal(t, "created", order.Status)
	})

	t.Run("Should retry server errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"order_retry","amount":100,"currency":"INR","status":"created"}`))
		})
		order, err := client.CreateOrder(t.Context(), &OrderRequest{Amount: 100, Currency: "INR", Receipt: "r-2"})
		require.NoError(t, err)
		assert.Equal(t, "order_retry", order.ID)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Should give up after the configured retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := client.CreateOrder(t.Context(), &OrderRequest{Amount: 100, Currency: "INR", Receipt: "r-3"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Should not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
		})
		_, err := client.CreateOrder(t.Context(), &OrderRequest{Amount: 10, Currency: "INR", Receipt: "r-4"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
		assert.Contains(t, apiErr.Description, "atleast")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Should require credentials", func(t *testing.T) {
		_, err := New(Config{KeyID: "only-id"})
		assert.Error(t, err)
	})
}

func TestParseEvent(t *testing.T) {
	t.Run("Should read a captured payment", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{
			"event": "payment.captured",
			"payload": {"payment": {"entity": {
				"id": "pay_1", "order_id": "order_1", "amount": 999900, "currency": "INR"
			}}}
		}`))
		require.NoError(t, err)
		assert.Equal(t, EventPaymentCaptured, ev.Type)
		assert.Equal(t, "order_1", ev.OrderID)
		assert.Equal(t, "pay_1", ev.PaymentID)
		assert.Equal(t, int64(999900), ev.Amount)
	})

	t.Run("Should fall back to the order entity", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{
			"event": "order.paid",
			"payload": {"order": {"entity": {"id": "order_2", "amount_paid": 500, "currency": "INR"}}}
		}`))
		require.NoError(t, err)
		assert.Equal(t, "order_2", ev.OrderID)
		assert.Equal(t, int64(500), ev.Amount)
	})

	t.Run("Should reject malformed bodies", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"payload":`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
		_, err = ParseEvent([]byte(`{"payload":{}}`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}
