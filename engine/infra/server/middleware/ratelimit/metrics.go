package ratelimit

import (
	"context"

	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// blockCounter counts 429s by route prefix and key type. The zero value
// records nothing.
type blockCounter struct {
	counter metric.Int64Counter
}

func newBlockCounter(meter metric.Meter) (blockCounter, error) {
	c, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("http", "rate_limit_blocks_total"),
		metric.WithDescription("Requests rejected by rate limiting"),
	)
	if err != nil {
		return blockCounter{}, err
	}
	return blockCounter{counter: c}, nil
}

func (b blockCounter) blocked(ctx context.Context, route, keyType string) {
	if b.counter == nil {
		return
	}
	b.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("key_type", keyType),
	))
}
