package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	applicantrouter "github.com/lendflow/lendflow/engine/applicant/router"
	authrouter "github.com/lendflow/lendflow/engine/auth/router"
	billingrouter "github.com/lendflow/lendflow/engine/billing/router"
	documentrouter "github.com/lendflow/lendflow/engine/document/router"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	authmw "github.com/lendflow/lendflow/engine/infra/server/middleware/auth"
	"github.com/lendflow/lendflow/engine/infra/server/middleware/size"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/engine/infra/server/routes"
	loanrouter "github.com/lendflow/lendflow/engine/loan/router"
	partyrouter "github.com/lendflow/lendflow/engine/party/router"
	verificationrouter "github.com/lendflow/lendflow/engine/verification/router"
	"github.com/lendflow/lendflow/engine/webhook"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
)

const (
	maxWebhookBodyBytes  = 1 << 20
	requestIdempotentTTL = 24 * time.Hour
	subscriptionCacheTTL = 30 * time.Second
)

// RegisterRoutes mounts every API route. Webhooks are public and signed,
// everything else requires a caller. Loan domain writes also require a
// usable subscription.
func RegisterRoutes(ctx context.Context, r *gin.Engine, state *appstate.State, redis *cache.Redis) error {
	log := logger.FromContext(ctx)
	cfg := config.FromContext(ctx)

	r.GET(routes.Liveness(), LivenessHandler(state))
	r.GET(routes.Readiness(), ReadinessHandler(state))

	apiBase := r.Group(routes.Base())
	idem := webhook.NewRedisService(redis)
	if err := registerWebhooks(ctx, apiBase, state, idem); err != nil {
		return err
	}

	authManager := authmw.NewManager(state.Auth, cfg.Auth.CacheTTL)
	if state.Monitoring != nil && state.Monitoring.IsInitialized() {
		authManager = authManager.WithMetrics(ctx, state.Monitoring.Meter())
	}
	protected := apiBase.Group("", authManager.Middleware())
	authrouter.RegisterRoutes(protected, state.Auth, authManager)

	authed := protected.Group("", authManager.RequireAuth())
	billingrouter.RegisterRoutes(authed, state.Billing)

	gate := billingrouter.NewSubscriptionGate(state.Billing, subscriptionCacheTTL)
	state.Billing.OnSubscriptionChange(gate.Forget)
	domain := authed.Group("",
		gate.RequireActiveSubscription(),
		router.Idempotent(router.NewAPIIdempotency(idem), requestIdempotentTTL),
	)
	applicantrouter.RegisterRoutes(domain, state.Applicants)
	loanrouter.RegisterRoutes(domain, state.Loans)
	partyrouter.RegisterRoutes(domain, state.Parties)
	documentrouter.RegisterRoutes(domain, state.Documents)
	verificationrouter.RegisterRoutes(domain, state.Verifications)

	log.Debug("Completed route registration", "routes", len(r.Routes()))
	return nil
}

func registerWebhooks(ctx context.Context, apiBase *gin.RouterGroup, state *appstate.State, idem webhook.Service) error {
	cfg := config.FromContext(ctx)
	secret := cfg.Billing.WebhookSecret.Value()
	if secret == "" {
		logger.FromContext(ctx).Warn("Billing webhook secret not set, gateway events are not accepted")
		return nil
	}
	reg := webhook.NewRegistry()
	if err := billingrouter.RegisterWebhook(reg, state.Billing, secret, cfg.Billing.DedupeTTL); err != nil {
		return err
	}
	hooks := apiBase.Group("/webhooks", size.MaxBody(maxWebhookBodyBytes))
	webhook.RegisterPublic(hooks, webhook.NewOrchestrator(reg, idem, state.DomainMetrics(), maxWebhookBodyBytes))
	return nil
}
