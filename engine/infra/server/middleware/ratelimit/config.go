package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config represents rate limiting configuration
type Config struct {
	// Global rate limit settings, keyed by client IP
	GlobalRate RateConfig

	// Per-key rate limit for API keys
	APIKeyRate RateConfig

	// Per-route rate limits, matched by path prefix
	RouteRates map[string]RateConfig

	Prefix   string
	MaxRetry int

	DisableHeaders bool
	ExcludedPaths  []string
	ExcludedIPs    []string
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period   time.Duration
	Limit    int64
	Disabled bool
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{Limit: 100, Period: time.Minute},
		APIKeyRate: RateConfig{Limit: 100, Period: time.Minute},
		RouteRates: map[string]RateConfig{
			// stricter to slow down credential stuffing
			"/api/v1/auth":    {Limit: 20, Period: time.Minute},
			"/api/v1/users":   {Limit: 30, Period: time.Minute},
			"/api/v1/billing": {Limit: 30, Period: time.Minute},
		},
		Prefix:   "lendflow:ratelimit:",
		MaxRetry: 3,
		ExcludedPaths: []string{
			"/healthz",
			"/readyz",
			"/metrics",
		},
	}
}

// ToLimiterRate converts RateConfig to limiter.Rate
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GlobalRate.Limit <= 0 {
		return fmt.Errorf("global rate limit must be positive")
	}
	if c.APIKeyRate.Limit <= 0 {
		return fmt.Errorf("API key rate limit must be positive")
	}
	for route, rate := range c.RouteRates {
		if rate.Limit <= 0 {
			return fmt.Errorf("route rate limit for %s must be positive", route)
		}
	}
	return nil
}
