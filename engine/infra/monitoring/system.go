package monitoring

import (
	"context"
	"fmt"
	"time"

	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"github.com/lendflow/lendflow/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// registerSystemMetrics exposes build info and uptime for the lifetime of
// the returned registration.
func registerSystemMetrics(meter metric.Meter, started time.Time) (metric.Registration, error) {
	build, err := meter.Int64ObservableGauge(
		monitoringmetrics.MetricName("build_info"),
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		return nil, fmt.Errorf("build info gauge: %w", err)
	}
	uptime, err := meter.Float64ObservableGauge(
		monitoringmetrics.MetricName("uptime_seconds"),
		metric.WithDescription("Seconds since the process started serving"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("uptime gauge: %w", err)
	}
	info := version.Get()
	buildAttrs := metric.WithAttributes(
		attribute.String("version", info.Version),
		attribute.String("commit_hash", info.CommitHash),
		attribute.String("go_version", info.GoVersion),
	)
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(build, 1, buildAttrs)
		o.ObserveFloat64(uptime, time.Since(started).Seconds())
		return nil
	}, build, uptime)
}
