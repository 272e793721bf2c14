package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/lendflow/lendflow/pkg/version"
	"golang.org/x/sync/errgroup"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// LivenessHandler reports that the process is up. It never touches backing
// services.
//
//	@Summary  Liveness probe
//	@Tags     health
//	@Produce  json
//	@Success  200 {object} map[string]any
//	@Router   /healthz [get]
func LivenessHandler(state *appstate.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  statusOK,
			"version": version.Get().Version,
			"ready":   state.Ready(),
		})
	}
}

// ReadinessHandler probes every registered dependency in parallel and
// answers 503 when any of them fails or the server is draining.
//
//	@Summary  Readiness probe
//	@Tags     health
//	@Produce  json
//	@Success  200 {object} map[string]any
//	@Failure  503 {object} map[string]any
//	@Router   /readyz [get]
func ReadinessHandler(state *appstate.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
		defer cancel()
		components, healthy := runChecks(ctx, state.Checks())
		ready := healthy && state.Ready()
		status := statusReady
		code := http.StatusOK
		if !ready {
			status = statusNotReady
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"ready":      ready,
			"components": components,
		})
	}
}

func runChecks(ctx context.Context, checks []appstate.Check) (gin.H, bool) {
	log := logger.FromContext(ctx)
	var mu sync.Mutex
	components := gin.H{}
	healthy := true
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		g.Go(func() error {
			err := check.Fn(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("Readiness check failed", "component", check.Name, "error", err)
				components[check.Name] = gin.H{"healthy": false, "error": err.Error()}
				healthy = false
				return nil
			}
			components[check.Name] = gin.H{"healthy": true}
			return nil
		})
	}
	_ = g.Wait()
	return components, healthy
}
