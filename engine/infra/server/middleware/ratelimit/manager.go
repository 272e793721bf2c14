package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel/metric"
)

const (
	keyTypeIP     = "ip"
	keyTypeAPIKey = "api_key"
	bearerPrefix  = "Bearer "
)

type routeLimiter struct {
	prefix  string
	limiter *limiter.Limiter
}

// Manager applies the global, API key and per-route limits. Counters live in
// Redis when a client is given and in process memory otherwise.
type Manager struct {
	config *Config
	store  limiter.Store
	global *limiter.Limiter
	apiKey *limiter.Limiter
	routes []routeLimiter
	blocks blockCounter
}

func NewManager(config *Config, redisClient redis.UniversalClient) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	store, err := newStore(config, redisClient)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		config: config,
		store:  store,
		global: limiter.New(store, config.GlobalRate.ToLimiterRate()),
		apiKey: limiter.New(store, config.APIKeyRate.ToLimiterRate()),
	}
	for prefix, rate := range config.RouteRates {
		if rate.Disabled {
			continue
		}
		m.routes = append(m.routes, routeLimiter{prefix: prefix, limiter: limiter.New(store, rate.ToLimiterRate())})
	}
	// longest prefix wins
	sort.Slice(m.routes, func(i, j int) bool { return len(m.routes[i].prefix) > len(m.routes[j].prefix) })
	return m, nil
}

// NewManagerWithMetrics is NewManager with blocked request counting.
func NewManagerWithMetrics(
	ctx context.Context,
	config *Config,
	redisClient redis.UniversalClient,
	meter metric.Meter,
) (*Manager, error) {
	m, err := NewManager(config, redisClient)
	if err != nil {
		return nil, err
	}
	if meter != nil {
		if m.blocks, err = newBlockCounter(meter); err != nil {
			logger.FromContext(ctx).Warn("Failed to initialize rate limit metrics", "error", err)
		}
	}
	return m, nil
}

func newStore(config *Config, redisClient redis.UniversalClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          config.Prefix,
		MaxRetry:        config.MaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	if redisClient == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := sredis.NewStoreWithOptions(redisClient, opts)
	if err != nil {
		return nil, fmt.Errorf("creating redis rate limit store: %w", err)
	}
	return store, nil
}

// Middleware answers 429 once a caller exceeds any applicable limit.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if m.excluded(path, c.ClientIP()) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		keyType, key := m.identify(c)
		lim := m.global
		if keyType == keyTypeAPIKey && !m.config.APIKeyRate.Disabled {
			lim = m.apiKey
		}
		route := ""
		if rl, ok := m.routeFor(path); ok {
			lim = rl.limiter
			route = rl.prefix
		}
		if m.config.GlobalRate.Disabled && route == "" && lim == m.global {
			c.Next()
			return
		}
		res, err := lim.Get(ctx, route+"|"+keyType+":"+key)
		if err != nil {
			logger.FromContext(ctx).Error("Rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !m.config.DisableHeaders {
			h := c.Writer.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))
		}
		if res.Reached {
			if route == "" {
				route = "global"
			}
			m.blocks.blocked(ctx, route, keyType)
			retry := max(time.Until(time.Unix(res.Reset, 0)), time.Second)
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			router.RespondProblemWithCode(c, http.StatusTooManyRequests, core.CodeRateLimited, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *Manager) excluded(path, ip string) bool {
	for _, p := range m.config.ExcludedPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return slices.Contains(m.config.ExcludedIPs, ip)
}

// identify keys API key callers by a hash of the key and everyone else by IP.
// Runs before authentication, so the key is not validated here.
func (m *Manager) identify(c *gin.Context) (string, string) {
	authz := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authz, bearerPrefix); ok && token != "" && !strings.Contains(token, ".") {
		sum := sha256.Sum256([]byte(token))
		return keyTypeAPIKey, hex.EncodeToString(sum[:8])
	}
	return keyTypeIP, c.ClientIP()
}

func (m *Manager) routeFor(path string) (routeLimiter, bool) {
	for _, rl := range m.routes {
		if strings.HasPrefix(path, rl.prefix) {
			return rl, true
		}
	}
	return routeLimiter{}, false
}
