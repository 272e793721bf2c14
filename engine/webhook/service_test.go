package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func newTestOrchestrator(t *testing.T, handler Handler) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedisFromClient(client, "lendflow:")
	reg := NewRegistry()
	require.NoError(t, reg.Add(RegistryEntry{
		Slug:         "razorpay",
		Verify:       VerifyConfig{Strategy: StrategyHMAC, Secret: testSecret, Header: "X-Razorpay-Signature"},
		DedupeHeader: "X-Razorpay-Event-Id",
		Handler:      handler,
	}))
	o := NewOrchestrator(reg, NewRedisService(store), nil, 1024)
	r := gin.New()
	RegisterPublic(r.Group("/webhooks"), o)
	return r, mr
}

func deliver(r *gin.Engine, slug, body, eventID string, signed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+slug, strings.NewReader(body))
	if signed {
		req.Header.Set("X-Razorpay-Signature", SignHex([]byte(testSecret), []byte(body)))
	}
	if eventID != "" {
		req.Header.Set("X-Razorpay-Event-Id", eventID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrchestrator_Process(t *testing.T) {
	body := `{"event":"payment.captured"}`
	t.Run("Should process a signed delivery once", func(t *testing.T) {
		calls := 0
		r, mr := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			calls++
			return Outcome{Event: "payment.captured"}, nil
		})
		w := deliver(r, "razorpay", body, "evt_1", true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"processed"`)
		assert.True(t, mr.Exists("lendflow:idempotency:webhook:razorpay:evt_1"))
		w = deliver(r, "razorpay", body, "evt_1", true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duplicate"`)
		assert.Equal(t, 1, calls)
	})
	t.Run("Should reject unsigned deliveries", func(t *testing.T) {
		r, _ := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			t.Fatal("handler must not run")
			return Outcome{}, nil
		})
		w := deliver(r, "razorpay", body, "evt_2", false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
	})
	t.Run("Should return 404 for unknown slugs", func(t *testing.T) {
		r, _ := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			return Outcome{}, nil
		})
		w := deliver(r, "stripe", body, "", true)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	})
	t.Run("Should reject bodies that are not JSON", func(t *testing.T) {
		r, _ := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			return Outcome{}, nil
		})
		w := deliver(r, "razorpay", "not-json", "evt_3", true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("Should release the key when the handler fails", func(t *testing.T) {
		fail := true
		r, mr := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			if fail {
				return Outcome{Event: "payment.captured"}, errors.New("database down")
			}
			return Outcome{Event: "payment.captured"}, nil
		})
		w := deliver(r, "razorpay", body, "evt_4", true)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, mr.Exists("lendflow:idempotency:webhook:razorpay:evt_4"))
		fail = false
		w = deliver(r, "razorpay", body, "evt_4", true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"processed"`)
	})
	t.Run("Should map invalid payloads to 400", func(t *testing.T) {
		r, _ := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			return Outcome{Event: "payment.captured"}, core.Invalid("payload.payment", "missing")
		})
		w := deliver(r, "razorpay", body, "evt_5", true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("Should report ignored events with 200", func(t *testing.T) {
		r, _ := newTestOrchestrator(t, func(_ context.Context, _ []byte) (Outcome, error) {
			return Outcome{Event: "refund.created", Ignored: true}, nil
		})
		w := deliver(r, "razorpay", `{"event":"refund.created"}`, "evt_6", true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ignored"`)
	})
}

func TestDeriveKey(t *testing.T) {
	t.Run("Should prefer the delivery header", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Razorpay-Event-Id", " evt_9 ")
		assert.Equal(t, "evt_9", DeriveKey(h, "X-Razorpay-Event-Id", []byte(`{}`)))
	})
	t.Run("Should hash the body without a header", func(t *testing.T) {
		a := DeriveKey(http.Header{}, "X-Razorpay-Event-Id", []byte(`{"a":1}`))
		b := DeriveKey(http.Header{}, "X-Razorpay-Event-Id", []byte(`{"a":1}`))
		assert.Len(t, a, 64)
		assert.Equal(t, a, b)
	})
}

func TestRegistry_Add(t *testing.T) {
	noop := func(context.Context, []byte) (Outcome, error) { return Outcome{}, nil }
	t.Run("Should reject duplicate slugs case-insensitively", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Add(RegistryEntry{Slug: "razorpay", Handler: noop}))
		err := reg.Add(RegistryEntry{Slug: " RazorPay ", Handler: noop})
		assert.ErrorIs(t, err, ErrDuplicateSlug)
		assert.Equal(t, []string{"razorpay"}, reg.Slugs())
	})
	t.Run("Should require a handler", func(t *testing.T) {
		assert.Error(t, NewRegistry().Add(RegistryEntry{Slug: "razorpay"}))
	})
}
