package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"github.com/lendflow/lendflow/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedRoute = "unmatched"

type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	in.requests, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("http", "requests_total"),
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	in.duration, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.HTTPDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}
	in.inFlight, err = meter.Int64UpDownCounter(
		monitoringmetrics.MetricNameWithSubsystem("http", "requests_in_flight"),
		metric.WithDescription("Requests currently being served"),
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// HTTPMetrics counts requests and records latency labelled by method, route
// template and status. A nil meter or an instrument error yields a
// pass-through middleware.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		logger.Error("HTTP metrics disabled", "error", err)
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		in.inFlight.Add(ctx, 1)
		defer in.inFlight.Add(ctx, -1)
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", route),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		in.requests.Add(ctx, 1, attrs)
		in.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
