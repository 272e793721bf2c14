package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricName(t *testing.T) {
	t.Run("Should add the namespace once", func(t *testing.T) {
		assert.Equal(t, "lendflow_requests_total", MetricName("requests_total"))
		assert.Equal(t, "lendflow_requests_total", MetricName("lendflow_requests_total"))
	})

	t.Run("Should join subsystem and name", func(t *testing.T) {
		assert.Equal(t, "lendflow_loan_status_transitions_total", MetricNameWithSubsystem("loan", "status_transitions_total"))
		assert.Equal(t, "lendflow_billing_sweeps_total", MetricNameWithSubsystem("_billing_", "sweeps_total"))
		assert.Equal(t, "lendflow_postgres", MetricNameWithSubsystem("postgres", ""))
	})
}
