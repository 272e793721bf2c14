package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	t.Run("Should return versioned API base path", func(t *testing.T) {
		assert.Equal(t, "/api/v1", Base())
	})
}

func TestResourcePaths(t *testing.T) {
	t.Run("Should nest resource groups under the API base", func(t *testing.T) {
		assert.Equal(t, "/api/v1/webhooks", Webhooks())
		assert.Equal(t, "/api/v1/auth", Auth())
		assert.Equal(t, "/api/v1/users", Users())
		assert.Equal(t, "/api/v1/billing", Billing())
	})

	t.Run("Should keep probes outside the API base", func(t *testing.T) {
		assert.Equal(t, "/healthz", Liveness())
		assert.Equal(t, "/readyz", Readiness())
	})
}
