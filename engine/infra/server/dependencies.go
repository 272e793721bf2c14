package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	applicantuc "github.com/lendflow/lendflow/engine/applicant/uc"
	authpg "github.com/lendflow/lendflow/engine/auth/infra/postgres"
	authuc "github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/billing/razorpay"
	billinguc "github.com/lendflow/lendflow/engine/billing/uc"
	documentuc "github.com/lendflow/lendflow/engine/document/uc"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/engine/infra/objectstore"
	"github.com/lendflow/lendflow/engine/infra/postgres"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	loanuc "github.com/lendflow/lendflow/engine/loan/uc"
	partyuc "github.com/lendflow/lendflow/engine/party/uc"
	verificationuc "github.com/lendflow/lendflow/engine/verification/uc"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
)

// infra holds the long-lived clients the factories are built on.
type infra struct {
	store   *postgres.Store
	cache   *cache.Redis
	objects *objectstore.Store
	gateway *razorpay.Client
}

func (s *Server) setupDependencies() (*appstate.State, error) {
	log := logger.FromContext(s.ctx)
	cfg := config.FromContext(s.ctx)
	start := time.Now()
	s.setupMonitoring(cfg)
	deps := &infra{}
	var err error
	if deps.store, err = s.setupStore(cfg); err != nil {
		return nil, err
	}
	if deps.cache, err = s.setupCache(cfg); err != nil {
		return nil, err
	}
	if deps.objects, err = objectstore.New(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to setup object store: %w", err)
	}
	s.cache = deps.cache
	deps.gateway = setupGateway(s.ctx, cfg)
	factories := buildFactories(cfg, deps, s.monitoring.Domain())
	state, err := appstate.NewState(factories, s.monitoring)
	if err != nil {
		return nil, fmt.Errorf("failed to create app state: %w", err)
	}
	state.AddCheck("database", deps.store.HealthCheck)
	state.AddCheck("redis", deps.cache.HealthCheck)
	state.AddCheck("object_store", deps.objects.Ping)
	if err := s.startSweeper(cfg, factories.Billing); err != nil {
		return nil, err
	}
	log.Info("Dependencies ready", "duration", time.Since(start))
	return state, nil
}

func (s *Server) setupMonitoring(cfg *config.Config) {
	log := logger.FromContext(s.ctx)
	ctx, cancel := context.WithTimeout(s.ctx, monitoringInitTimeout)
	defer cancel()
	s.monitoring = monitoring.NewMonitoringServiceWithFallback(ctx, monitoring.FromAppConfig(cfg))
	if !s.monitoring.IsInitialized() {
		return
	}
	s.monitoring.SetAsGlobal()
	log.Info("Monitoring enabled", "path", s.monitoring.Path())
	s.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), monitoringShutdownTimeout)
		defer cancel()
		if err := s.monitoring.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown monitoring service", "error", err)
		}
	})
}

func (s *Server) setupStore(cfg *config.Config) (*postgres.Store, error) {
	log := logger.FromContext(s.ctx)
	pgCfg := postgres.FromAppConfig(&cfg.Database)
	if cfg.Database.AutoMigrate {
		if err := postgres.ApplyMigrationsWithLock(s.ctx, pgCfg.DSN()); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	store, err := postgres.NewStore(s.ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup store: %w", err)
	}
	s.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), dbShutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Error("Failed to close database pool", "error", err)
		}
	})
	return store, nil
}

func (s *Server) setupCache(cfg *config.Config) (*cache.Redis, error) {
	log := logger.FromContext(s.ctx)
	redis, err := cache.NewRedis(s.ctx, cache.FromAppConfig(&cfg.Redis))
	if err != nil {
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}
	s.addCleanup(func() {
		if err := redis.Close(); err != nil {
			log.Error("Failed to close redis client", "error", err)
		}
	})
	return redis, nil
}

// setupGateway returns nil when no Razorpay keys are configured. Checkout is
// then disabled while trials and the gate keep working.
func setupGateway(ctx context.Context, cfg *config.Config) *razorpay.Client {
	log := logger.FromContext(ctx)
	client, err := razorpay.New(razorpay.Config{
		BaseURL:    cfg.Billing.BaseURL,
		KeyID:      cfg.Billing.KeyID,
		KeySecret:  cfg.Billing.KeySecret.Value(),
		Timeout:    cfg.Billing.Timeout,
		MaxRetries: cfg.Billing.MaxRetries,
	})
	if err != nil {
		log.Warn("Payment gateway disabled", "reason", err)
		return nil
	}
	return client
}

func buildFactories(cfg *config.Config, deps *infra, metrics *monitoring.DomainMetrics) appstate.Factories {
	pool := deps.store.Pool()
	applicants := postgres.NewApplicantRepo(pool)
	parties := postgres.NewPartyRepo(pool)
	loans := postgres.NewLoanRepo(pool)
	documents := postgres.NewDocumentRepo(pool)
	verifications := postgres.NewVerificationRepo(pool)
	authRepo := authpg.NewRepository(pool)

	billingDeps := billinguc.Deps{
		Repo:         postgres.NewBillingRepo(pool),
		Store:        deps.cache,
		Applications: loans,
		Metrics:      metrics,
		Settings: billinguc.Settings{
			KeyID:       cfg.Billing.KeyID,
			KeySecret:   cfg.Billing.KeySecret.Value(),
			TrialDays:   cfg.Billing.TrialDays,
			GracePeriod: cfg.Billing.GracePeriod,
		},
	}
	if deps.gateway != nil {
		billingDeps.Gateway = deps.gateway
	}
	billing := billinguc.NewFactory(billingDeps)

	loanFactory := loanuc.NewFactory(loanuc.Deps{
		Repo:          loans,
		Applicants:    applicants,
		Users:         authRepo,
		Parties:       parties,
		Documents:     documents,
		Verifications: verifications,
		Quota:         billing.Quota(),
		Metrics:       metrics,
	})

	return appstate.Factories{
		Auth:       authuc.NewFactory(authRepo, cfg.Auth.APIKeyPrefix, tokenVerifier(cfg)),
		Applicants: applicantuc.NewFactory(applicants),
		Parties:    partyuc.NewFactory(parties, applicants),
		Loans:      loanFactory,
		Documents: documentuc.NewFactory(documentuc.Deps{
			Repo:         documents,
			Storage:      deps.objects,
			Applications: loans,
			Parties:      parties,
			Limits: documentuc.Limits{
				MaxBytes:     cfg.Storage.MaxUploadBytes,
				AllowedTypes: cfg.Storage.AllowedMIMETypes,
			},
		}),
		Verifications: verificationuc.NewFactory(verificationuc.Deps{
			Repo:         verifications,
			Applications: loans,
			Users:        authRepo,
			Mover:        loanFactory,
		}),
		Billing: billing,
	}
}

// tokenVerifier is nil unless auth is enabled with a JWT secret; API keys
// work either way.
func tokenVerifier(cfg *config.Config) *authuc.TokenVerifier {
	secret := cfg.Auth.JWTSecret.Value()
	if !cfg.Auth.Enabled || secret == "" {
		return nil
	}
	return authuc.NewTokenVerifier(secret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
}

func (s *Server) startSweeper(cfg *config.Config, factory *billinguc.Factory) error {
	log := logger.FromContext(s.ctx)
	sweeper, err := billinguc.NewSweeper(s.ctx, factory, cfg.Billing.SweepSchedule)
	if err != nil {
		return err
	}
	sweeper.Start()
	log.Info("Subscription sweeper scheduled", "schedule", cfg.Billing.SweepSchedule)
	s.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), sweeperShutdownTimeout)
		defer cancel()
		sweeper.Stop(ctx)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("Subscription sweep still running at shutdown")
		}
	})
	return nil
}
