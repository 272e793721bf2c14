package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lendflow/lendflow/pkg/logger"
)

const (
	defaultMaxConns           = 20
	defaultHealthCheckPeriod  = 30 * time.Second
	defaultConnectTimeout     = 5 * time.Second
	defaultPingTimeout        = 3 * time.Second
	defaultHealthCheckTimeout = 1 * time.Second
)

// Store owns the pgx pool shared by every repository.
type Store struct {
	pool          *pgxpool.Pool
	observer      *poolObserver
	healthTimeout time.Duration
}

// NewStore opens the pool and pings it before returning.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config is required")
	}
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, orDefault(cfg.PingTimeout, defaultPingTimeout))
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	log := logger.FromContext(ctx)
	observer, err := observePool(pool, poolLabel(cfg))
	if err != nil {
		log.Warn("Postgres pool metrics disabled", "error", err)
	}
	log.Info("Store initialized",
		"host", cfg.Host,
		"db_name", cfg.DBName,
		"ssl_mode", cfg.SSLMode,
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
	)
	return &Store{
		pool:          pool,
		observer:      observer,
		healthTimeout: orDefault(cfg.HealthCheckTimeout, defaultHealthCheckTimeout),
	}, nil
}

// Close stops metric reporting and closes the pool.
func (s *Store) Close(ctx context.Context) error {
	if err := s.observer.stop(); err != nil {
		logger.FromContext(ctx).Warn("Failed to unregister pool metrics", "error", err)
	}
	s.pool.Close()
	logger.FromContext(ctx).Info("Postgres store closed")
	return nil
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// HealthCheck pings the pool within the configured timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, orDefault(s.healthTimeout, defaultHealthCheckTimeout))
	defer cancel()
	if err := s.pool.Ping(hctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func poolConfig(cfg *Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns, poolCfg.MinConns = connectionBounds(cfg.MaxOpenConns, cfg.MaxIdleConns)
	poolCfg.HealthCheckPeriod = orDefault(cfg.HealthCheckPeriod, defaultHealthCheckPeriod)
	poolCfg.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, defaultConnectTimeout)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return poolCfg, nil
}

// connectionBounds maps open/idle settings onto pgxpool max/min conns.
// Idle connections become the pool minimum and never exceed the maximum.
func connectionBounds(maxOpen, maxIdle int) (int32, int32) {
	maxConns := int32(defaultMaxConns)
	if maxOpen > 0 {
		maxConns = int32(min(maxOpen, math.MaxInt32))
	}
	var minConns int32
	if maxIdle > 0 {
		minConns = int32(min(maxIdle, int(maxConns)))
	}
	return maxConns, minConns
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
