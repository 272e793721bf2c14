package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	"github.com/lendflow/lendflow/engine/infra/server/middleware/ratelimit"
	"github.com/lendflow/lendflow/engine/infra/server/routes"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/lendflow/lendflow/pkg/version"
	"github.com/redis/go-redis/v9"
)

func convertRateLimitConfig(cfg *config.Config, metricsPath string) *ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	if cfg.RateLimit.GlobalRate.Limit > 0 {
		rl.GlobalRate = ratelimit.RateConfig{
			Limit:  cfg.RateLimit.GlobalRate.Limit,
			Period: cfg.RateLimit.GlobalRate.Period,
		}
	}
	if cfg.RateLimit.APIKeyRate.Limit > 0 {
		rl.APIKeyRate = ratelimit.RateConfig{
			Limit:  cfg.RateLimit.APIKeyRate.Limit,
			Period: cfg.RateLimit.APIKeyRate.Period,
		}
	}
	if cfg.RateLimit.Prefix != "" {
		rl.Prefix = cfg.RateLimit.Prefix
	}
	rl.ExcludedPaths = []string{routes.Liveness(), routes.Readiness()}
	if metricsPath != "" {
		rl.ExcludedPaths = append(rl.ExcludedPaths, metricsPath)
	}
	// webhooks are signed and deduped; the gateway retries on 429
	rl.ExcludedPaths = append(rl.ExcludedPaths, routes.Webhooks())
	return rl
}

// registerValidators adds the domain tags (pan, ifsc, phone_in) to gin's
// binding validator.
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return core.RegisterDomainValidators(v)
}

func (s *Server) buildRateLimiter(cfg *config.Config) gin.HandlerFunc {
	log := logger.FromContext(s.ctx)
	var client redis.UniversalClient
	driver := "memory"
	if s.cache != nil {
		client = s.cache.Client()
		driver = "redis"
	}
	rlCfg := convertRateLimitConfig(cfg, s.monitoring.Path())
	var (
		manager *ratelimit.Manager
		err     error
	)
	if s.monitoring.IsInitialized() {
		manager, err = ratelimit.NewManagerWithMetrics(s.ctx, rlCfg, client, s.monitoring.Meter())
	} else {
		manager, err = ratelimit.NewManager(rlCfg, client)
	}
	if err != nil {
		log.Error("Failed to initialize rate limiting", "error", err)
		return nil
	}
	log.Info("Rate limiter initialized",
		"driver", driver,
		"global_limit", rlCfg.GlobalRate.Limit,
		"global_period", rlCfg.GlobalRate.Period)
	return manager.Middleware()
}

func (s *Server) buildRouter(state *appstate.State) error {
	cfg := config.FromContext(s.ctx)
	if err := registerValidators(); err != nil {
		return err
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	if cfg.RateLimit.Enabled {
		if mw := s.buildRateLimiter(cfg); mw != nil {
			r.Use(mw)
		}
	}
	if s.monitoring.IsInitialized() {
		r.Use(s.monitoring.GinMiddleware())
	}
	r.Use(LoggerMiddleware(logger.FromContext(s.ctx)))
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	r.Use(appstate.StateMiddleware(state))
	if s.monitoring.IsInitialized() {
		r.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	if err := RegisterRoutes(s.ctx, r, state, s.cache); err != nil {
		return err
	}
	s.router = r
	return nil
}

func (s *Server) logStartupBanner() {
	log := logger.FromContext(s.ctx)
	cfg := config.FromContext(s.ctx)
	httpURL := fmt.Sprintf("http://%s:%d", friendlyHost(cfg.Server.Host), cfg.Server.Port)
	lines := []string{
		fmt.Sprintf("Lendflow %s", version.Get().Version),
		fmt.Sprintf("  API       > %s%s", httpURL, routes.Base()),
		fmt.Sprintf("  Healthz   > %s%s", httpURL, routes.Liveness()),
		fmt.Sprintf("  Readyz    > %s%s", httpURL, routes.Readiness()),
		fmt.Sprintf("  Webhooks  > %s%s", httpURL, routes.Webhooks()),
	}
	if s.monitoring.IsInitialized() {
		lines = append(lines, fmt.Sprintf("  Metrics   > %s%s", httpURL, s.monitoring.Path()))
	}
	log.Info("\n" + strings.Join(lines, "\n"))
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
