package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	postgresMeterName = "lendflow.postgres"
	defaultPoolLabel  = "default"
)

// poolObserver reports pgxpool statistics as asynchronous instruments. Each
// pool owns its own callback registration so closing a store stops reporting.
type poolObserver struct {
	label        string
	registration metric.Registration
}

type poolInstruments struct {
	total     metric.Int64ObservableGauge
	acquired  metric.Int64ObservableGauge
	idle      metric.Int64ObservableGauge
	max       metric.Int64ObservableGauge
	waits     metric.Int64ObservableCounter
	waitTotal metric.Float64ObservableCounter
}

func newPoolInstruments(meter metric.Meter) (*poolInstruments, error) {
	name := func(n string) string { return monitoringmetrics.MetricNameWithSubsystem("postgres", n) }
	var (
		in  poolInstruments
		err error
	)
	if in.total, err = meter.Int64ObservableGauge(name("connections_open"),
		metric.WithDescription("Open connections in the pool")); err != nil {
		return nil, err
	}
	if in.acquired, err = meter.Int64ObservableGauge(name("connections_in_use"),
		metric.WithDescription("Connections currently acquired")); err != nil {
		return nil, err
	}
	if in.idle, err = meter.Int64ObservableGauge(name("connections_idle"),
		metric.WithDescription("Idle connections in the pool")); err != nil {
		return nil, err
	}
	if in.max, err = meter.Int64ObservableGauge(name("max_open_connections"),
		metric.WithDescription("Configured pool size")); err != nil {
		return nil, err
	}
	if in.waits, err = meter.Int64ObservableCounter(name("empty_acquire_total"),
		metric.WithDescription("Acquires that had to wait for a free connection")); err != nil {
		return nil, err
	}
	if in.waitTotal, err = meter.Float64ObservableCounter(name("acquire_wait_seconds_total"),
		metric.WithDescription("Cumulative seconds spent waiting for a connection")); err != nil {
		return nil, err
	}
	return &in, nil
}

// observePool registers a callback reading pool.Stat on every collection.
func observePool(pool *pgxpool.Pool, label string) (*poolObserver, error) {
	meter := otel.GetMeterProvider().Meter(postgresMeterName)
	in, err := newPoolInstruments(meter)
	if err != nil {
		return nil, fmt.Errorf("postgres: init metrics: %w", err)
	}
	attrs := metric.WithAttributes(attribute.String("pool", label))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := pool.Stat()
		o.ObserveInt64(in.total, int64(st.TotalConns()), attrs)
		o.ObserveInt64(in.acquired, int64(st.AcquiredConns()), attrs)
		o.ObserveInt64(in.idle, int64(st.IdleConns()), attrs)
		o.ObserveInt64(in.max, int64(st.MaxConns()), attrs)
		o.ObserveInt64(in.waits, st.EmptyAcquireCount(), attrs)
		o.ObserveFloat64(in.waitTotal, st.EmptyAcquireWaitTime().Seconds(), attrs)
		return nil
	}, in.total, in.acquired, in.idle, in.max, in.waits, in.waitTotal)
	if err != nil {
		return nil, fmt.Errorf("postgres: register metrics callback: %w", err)
	}
	return &poolObserver{label: label, registration: reg}, nil
}

func (p *poolObserver) stop() error {
	if p == nil || p.registration == nil {
		return nil
	}
	return p.registration.Unregister()
}

// poolLabel names a pool after its host and database, e.g. "db-lendflow".
func poolLabel(cfg *Config) string {
	if cfg == nil {
		return defaultPoolLabel
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{cfg.Host, cfg.DBName} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	label := slug.Make(strings.Join(parts, " "))
	if label == "" {
		return defaultPoolLabel
	}
	return label
}
