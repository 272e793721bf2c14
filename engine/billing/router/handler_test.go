package router_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/billing/razorpay"
	brouter "github.com/lendflow/lendflow/engine/billing/router"
	"github.com/lendflow/lendflow/engine/billing/testutil"
	"github.com/lendflow/lendflow/engine/billing/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/lendflow/lendflow/engine/infra/server/router/routertest"
	"github.com/lendflow/lendflow/engine/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keySecret     = "key_secret"
	webhookSecret = "whsec_test"
)

type stubGateway struct {
	calls int
}

func (g *stubGateway) CreateOrder(_ context.Context, req *razorpay.OrderRequest) (*razorpay.Order, error) {
	g.calls++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.calls),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

type env struct {
	engine  *gin.Engine
	api     *gin.RouterGroup
	repo    *testutil.InMemoryRepo
	gateway *stubGateway
	factory *uc.Factory
	store   *cache.Redis
	owner   *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	e := &env{
		repo:    testutil.NewInMemoryRepo(),
		gateway: &stubGateway{},
		store:   cache.NewRedisFromClient(client, "test:"),
	}
	e.owner = routertest.NewUser(core.MustNewID(), model.RoleOwner)
	e.factory = uc.NewFactory(uc.Deps{
		Repo:     e.repo,
		Gateway:  e.gateway,
		Store:    e.store,
		Settings: uc.Settings{KeyID: "rzp_key", KeySecret: keySecret},
	})
	e.engine, e.api = routertest.NewEngine(t, func() *model.User { return e.owner })
	return e
}

func TestBillingRoutes(t *testing.T) {
	t.Run("Should list the plan catalog", func(t *testing.T) {
		e := newEnv(t)
		brouter.RegisterRoutes(e.api, e.factory)
		w := routertest.Do(e.engine, http.MethodGet, "/api/v1/billing/plans", "")
		require.Equal(t, http.StatusOK, w.Code)
		plans := routertest.DecodeData[[]billing.Plan](t, w)
		assert.Len(t, plans, 3)
	})

	t.Run("Should report a missing subscription as not found", func(t *testing.T) {
		e := newEnv(t)
		brouter.RegisterRoutes(e.api, e.factory)
		w := routertest.Do(e.engine, http.MethodGet, "/api/v1/billing/subscription", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Should check out, verify and show the active plan", func(t *testing.T) {
		e := newEnv(t)
		brouter.RegisterRoutes(e.api, e.factory)
		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)

		checkout := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout",
				strings.NewReader(`{"plan_code":"growth"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", "retry-me")
			w := httptest.NewRecorder()
			e.engine.ServeHTTP(w, req)
			return w
		}
		w := checkout()
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		first := routertest.DecodeData[uc.Checkout](t, w)
		w = checkout()
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, first.OrderID, routertest.DecodeData[uc.Checkout](t, w).OrderID)
		assert.Equal(t, 1, e.gateway.calls)

		sig := billing.Sign(keySecret, billing.CheckoutPayload(first.OrderID, "pay_1"))
		body := fmt.Sprintf(`{"razorpay_order_id":%q,"razorpay_payment_id":"pay_1","razorpay_signature":%q}`,
			first.OrderID, sig)
		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/billing/checkout/verify", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = routertest.Do(e.engine, http.MethodGet, "/api/v1/billing/subscription", "")
		require.Equal(t, http.StatusOK, w.Code)
		view := routertest.DecodeData[uc.SubscriptionView](t, w)
		assert.Equal(t, billing.StatusActive, view.Status)
		assert.Equal(t, billing.PlanGrowth, view.PlanCode)
		assert.True(t, view.Usable)
	})

	t.Run("Should reject a tampered checkout signature", func(t *testing.T) {
		e := newEnv(t)
		brouter.RegisterRoutes(e.api, e.factory)
		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)
		w := routertest.Do(e.engine, http.MethodPost, "/api/v1/billing/checkout", `{"plan_code":"starter"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		co := routertest.DecodeData[uc.Checkout](t, w)
		body := fmt.Sprintf(`{"razorpay_order_id":%q,"razorpay_payment_id":"pay_1","razorpay_signature":"deadbeef"}`,
			co.OrderID)
		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/billing/checkout/verify", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should forbid checkout without billing rights", func(t *testing.T) {
		e := newEnv(t)
		brouter.RegisterRoutes(e.api, e.factory)
		e.owner = routertest.NewUser(e.owner.OrgID, model.RoleManager)
		w := routertest.Do(e.engine, http.MethodPost, "/api/v1/billing/checkout", `{"plan_code":"starter"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSubscriptionGate(t *testing.T) {
	t.Run("Should block writes until the organization has a usable subscription", func(t *testing.T) {
		e := newEnv(t)
		gate := brouter.NewSubscriptionGate(e.factory, time.Minute)
		gated := e.api.Group("", gate.RequireActiveSubscription())
		gated.GET("/things", func(c *gin.Context) { c.Status(http.StatusOK) })
		gated.POST("/things", func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := routertest.Do(e.engine, http.MethodGet, "/api/v1/things", "")
		assert.Equal(t, http.StatusOK, w.Code)
		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/things", `{}`)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Equal(t, core.CodePaymentRequired, routertest.ProblemCode(t, w))

		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)
		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/things", `{}`)
		assert.Equal(t, http.StatusPaymentRequired, w.Code, "cached decision holds until forgotten")

		gate.Forget(e.owner.OrgID)
		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/things", `{}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Should block writes once the subscription is cancelled", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)
		_, err = e.factory.CancelSubscription(e.owner).Execute(t.Context())
		require.NoError(t, err)
		gate := brouter.NewSubscriptionGate(e.factory, time.Minute)
		gated := e.api.Group("", gate.RequireActiveSubscription())
		gated.DELETE("/things/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := routertest.Do(e.engine, http.MethodDelete, "/api/v1/things/1", "")
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestRazorpayWebhook(t *testing.T) {
	setup := func(t *testing.T) (*env, *gin.Engine) {
		e := newEnv(t)
		reg := webhook.NewRegistry()
		require.NoError(t, brouter.RegisterWebhook(reg, e.factory, webhookSecret, time.Hour))
		orch := webhook.NewOrchestrator(reg, webhook.NewRedisService(e.store), nil, 0)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		webhook.RegisterPublic(r.Group("/api/v1/webhooks"), orch)
		return e, r
	}
	deliver := func(r *gin.Engine, eventID, body, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Razorpay-Event-Id", eventID)
		req.Header.Set("X-Razorpay-Signature", sig)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should capture a signed payment once per event id", func(t *testing.T) {
		e, r := setup(t)
		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)
		co, err := e.factory.CreateCheckoutOrder(e.owner, &uc.CheckoutInput{PlanCode: billing.PlanGrowth}).
			Execute(t.Context())
		require.NoError(t, err)
		body := fmt.Sprintf(
			`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_7","order_id":%q}}}}`,
			co.OrderID)
		sig := webhook.SignHex([]byte(webhookSecret), []byte(body))

		w := deliver(r, "evt_1", body, sig)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"processed"`)
		assert.Equal(t, billing.PaymentPaid, e.repo.Payment(co.OrderID).Status)

		w = deliver(r, "evt_1", body, sig)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duplicate"`)
	})

	t.Run("Should unblock writes as soon as a capture lands", func(t *testing.T) {
		e, r := setup(t)
		gate := brouter.NewSubscriptionGate(e.factory, time.Hour)
		e.factory.OnSubscriptionChange(gate.Forget)
		gated := e.api.Group("", gate.RequireActiveSubscription())
		gated.POST("/things", func(c *gin.Context) { c.Status(http.StatusCreated) })
		_, err := e.factory.StartTrial(e.owner.OrgID).Execute(t.Context())
		require.NoError(t, err)
		_, err = e.factory.CancelSubscription(e.owner).Execute(t.Context())
		require.NoError(t, err)
		w := routertest.Do(e.engine, http.MethodPost, "/api/v1/things", `{}`)
		require.Equal(t, http.StatusPaymentRequired, w.Code)

		co, err := e.factory.CreateCheckoutOrder(e.owner, &uc.CheckoutInput{PlanCode: billing.PlanGrowth}).
			Execute(t.Context())
		require.NoError(t, err)
		body := fmt.Sprintf(
			`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_8","order_id":%q}}}}`,
			co.OrderID)
		w = deliver(r, "evt_8", body, webhook.SignHex([]byte(webhookSecret), []byte(body)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = routertest.Do(e.engine, http.MethodPost, "/api/v1/things", `{}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Should refuse an unsigned delivery", func(t *testing.T) {
		_, r := setup(t)
		body := `{"event":"payment.captured","payload":{}}`
		w := deliver(r, "evt_2", body, webhook.SignHex([]byte("other"), []byte(body)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should acknowledge events it does not handle", func(t *testing.T) {
		_, r := setup(t)
		body := `{"event":"refund.created","payload":{}}`
		w := deliver(r, "evt_3", body, webhook.SignHex([]byte(webhookSecret), []byte(body)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ignored"`)
	})
}
