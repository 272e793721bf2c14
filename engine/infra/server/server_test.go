package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	applicantuc "github.com/lendflow/lendflow/engine/applicant/uc"
	authuc "github.com/lendflow/lendflow/engine/auth/uc"
	billinguc "github.com/lendflow/lendflow/engine/billing/uc"
	documentuc "github.com/lendflow/lendflow/engine/document/uc"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	loanuc "github.com/lendflow/lendflow/engine/loan/uc"
	partyuc "github.com/lendflow/lendflow/engine/party/uc"
	verificationuc "github.com/lendflow/lendflow/engine/verification/uc"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *appstate.State {
	t.Helper()
	state, err := appstate.NewState(appstate.Factories{
		Auth:          authuc.NewFactory(nil, "lf", nil),
		Applicants:    applicantuc.NewFactory(nil),
		Parties:       partyuc.NewFactory(nil, nil),
		Loans:         loanuc.NewFactory(loanuc.Deps{}),
		Documents:     documentuc.NewFactory(documentuc.Deps{}),
		Verifications: verificationuc.NewFactory(verificationuc.Deps{}),
		Billing:       billinguc.NewFactory(billinguc.Deps{}),
	}, nil)
	require.NoError(t, err)
	return state
}

func serve(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	t.Run("Should fail when the manager has nothing loaded", func(t *testing.T) {
		ctx := config.ContextWithManager(t.Context(), config.NewManager(config.NewService()))
		_, err := NewServer(ctx)
		require.Error(t, err)
	})

	t.Run("Should build from a loaded manager", func(t *testing.T) {
		ctx := t.Context()
		manager := config.NewManager(config.NewService())
		_, err := manager.Load(ctx, config.NewDefaultProvider())
		require.NoError(t, err)
		srv, err := NewServer(config.ContextWithManager(ctx, manager))
		require.NoError(t, err)
		assert.Nil(t, srv.Handler())
	})
}

func TestServer_Cleanup(t *testing.T) {
	t.Run("Should run cleanups in reverse order once", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		srv := &Server{ctx: ctx, cancel: cancel}
		var order []int
		srv.addCleanup(func() { order = append(order, 1) })
		srv.addCleanup(nil)
		srv.addCleanup(func() { order = append(order, 2) })
		srv.Shutdown()
		srv.Shutdown()
		assert.Equal(t, []int{2, 1}, order)
		assert.Error(t, ctx.Err())
	})
}

func TestHealthHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	newEngine := func(state *appstate.State) *gin.Engine {
		r := gin.New()
		r.GET("/healthz", LivenessHandler(state))
		r.GET("/readyz", ReadinessHandler(state))
		return r
	}

	t.Run("Should answer liveness without probing dependencies", func(t *testing.T) {
		state := newTestState(t)
		called := false
		state.AddCheck("database", func(context.Context) error { called = true; return nil })
		w := serve(newEngine(state), http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, called)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, false, body["ready"])
	})

	t.Run("Should be ready when every check passes", func(t *testing.T) {
		state := newTestState(t)
		state.SetReady(true)
		state.AddCheck("database", func(context.Context) error { return nil })
		state.AddCheck("redis", func(context.Context) error { return nil })
		w := serve(newEngine(state), http.MethodGet, "/readyz", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Status     string                    `json:"status"`
			Components map[string]map[string]any `json:"components"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
		assert.Len(t, body.Components, 2)
		assert.Equal(t, true, body.Components["redis"]["healthy"])
	})

	t.Run("Should answer 503 when a dependency fails", func(t *testing.T) {
		state := newTestState(t)
		state.SetReady(true)
		state.AddCheck("database", func(context.Context) error { return nil })
		state.AddCheck("object_store", func(context.Context) error { return errors.New("bucket unreachable") })
		w := serve(newEngine(state), http.MethodGet, "/readyz", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "bucket unreachable")
	})

	t.Run("Should answer 503 while draining", func(t *testing.T) {
		state := newTestState(t)
		w := serve(newEngine(state), http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Should bound slow checks by the probe timeout", func(t *testing.T) {
		state := newTestState(t)
		state.SetReady(true)
		state.AddCheck("database", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Minute):
				return nil
			}
		})
		start := time.Now()
		w := serve(newEngine(state), http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should mint a request id and expose it to the logger context", func(t *testing.T) {
		r := gin.New()
		r.Use(RequestIDMiddleware(), LoggerMiddleware(logger.NewForTests()))
		var seen string
		r.GET("/x", func(c *gin.Context) {
			seen = c.GetString(requestIDKey)
			assert.NotNil(t, logger.FromContext(c.Request.Context()))
			c.Status(http.StatusNoContent)
		})
		w := serve(r, http.MethodGet, "/x", nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(headerRequestID))
	})

	t.Run("Should echo a caller supplied request id", func(t *testing.T) {
		r := gin.New()
		r.Use(RequestIDMiddleware())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := serve(r, http.MethodGet, "/x", http.Header{headerRequestID: {"req-42"}})
		assert.Equal(t, "req-42", w.Header().Get(headerRequestID))
	})

	t.Run("Should allow configured origins and short circuit preflight", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware(config.CORSConfig{
			AllowedOrigins:   []string{"https://app.lendflow.test"},
			AllowCredentials: true,
			MaxAge:           600,
		}))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://app.lendflow.test"}})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.lendflow.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("Should not reflect unknown origins", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://app.lendflow.test"}}))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.test"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestConvertRateLimitConfig(t *testing.T) {
	t.Run("Should apply configured rates and exclude probes and webhooks", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.RateLimit.GlobalRate = config.RateConfig{Limit: 500, Period: time.Minute}
		cfg.RateLimit.Prefix = "custom:"
		rl := convertRateLimitConfig(cfg, "/metrics")
		assert.Equal(t, int64(500), rl.GlobalRate.Limit)
		assert.Equal(t, "custom:", rl.Prefix)
		assert.Contains(t, rl.ExcludedPaths, "/healthz")
		assert.Contains(t, rl.ExcludedPaths, "/readyz")
		assert.Contains(t, rl.ExcludedPaths, "/metrics")
		assert.Contains(t, rl.ExcludedPaths, "/api/v1/webhooks")
		assert.NoError(t, rl.Validate())
	})
}

func TestTokenVerifier(t *testing.T) {
	t.Run("Should only build a verifier when auth is enabled with a secret", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Auth.Enabled = true
		assert.Nil(t, tokenVerifier(cfg))
		cfg.Auth.JWTSecret = "s3cret"
		assert.True(t, tokenVerifier(cfg).Enabled())
		cfg.Auth.Enabled = false
		assert.Nil(t, tokenVerifier(cfg))
	})
}

func TestFriendlyHost(t *testing.T) {
	t.Run("Should map wildcard hosts to loopback", func(t *testing.T) {
		assert.Equal(t, "127.0.0.1", friendlyHost("0.0.0.0"))
		assert.Equal(t, "127.0.0.1", friendlyHost(""))
		assert.Equal(t, "api.internal", friendlyHost("api.internal"))
	})
}
