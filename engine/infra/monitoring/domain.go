package monitoring

import (
	"context"

	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"github.com/lendflow/lendflow/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DomainMetrics records business events. A nil receiver is a no-op so use
// cases can run without a monitoring service.
type DomainMetrics struct {
	transitions   metric.Int64Counter
	webhookEvents metric.Int64Counter
	sweeps        metric.Int64Counter
	gatewayCalls  metric.Float64Histogram
}

// NewDomainMetrics creates the business counters on meter.
func NewDomainMetrics(ctx context.Context, meter metric.Meter) *DomainMetrics {
	log := logger.FromContext(ctx)
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("lendflow")
	}
	m := &DomainMetrics{}
	var err error
	m.transitions, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("loan", "status_transitions_total"),
		metric.WithDescription("Loan application status changes"),
	)
	if err != nil {
		log.Error("Failed to create loan transitions counter", "error", err)
	}
	m.webhookEvents, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("webhook", "events_total"),
		metric.WithDescription("Payment gateway webhook deliveries by event and outcome"),
	)
	if err != nil {
		log.Error("Failed to create webhook events counter", "error", err)
	}
	m.sweeps, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("billing", "subscriptions_swept_total"),
		metric.WithDescription("Subscriptions moved by the expiry sweep"),
	)
	if err != nil {
		log.Error("Failed to create sweep counter", "error", err)
	}
	m.gatewayCalls, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("gateway", "call_duration_seconds"),
		metric.WithDescription("Latency of calls to external gateways"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.GatewayDurationBuckets...),
	)
	if err != nil {
		log.Error("Failed to create gateway latency histogram", "error", err)
	}
	return m
}

func (m *DomainMetrics) StatusTransition(ctx context.Context, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *DomainMetrics) WebhookEvent(ctx context.Context, event, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

func (m *DomainMetrics) SubscriptionsSwept(ctx context.Context, status string, n int64) {
	if m == nil || m.sweeps == nil || n == 0 {
		return
	}
	m.sweeps.Add(ctx, n, metric.WithAttributes(attribute.String("status", status)))
}

// GatewayCall records one round trip to gateway ("razorpay", "s3").
func (m *DomainMetrics) GatewayCall(ctx context.Context, gateway, operation string, seconds float64, ok bool) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	m.gatewayCalls.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("operation", operation),
		attribute.Bool("ok", ok),
	))
}
