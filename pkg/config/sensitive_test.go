package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact the gateway secrets when billing config is logged", func(t *testing.T) {
		billing := BillingConfig{
			KeyID:         "rzp_live_key",
			KeySecret:     SensitiveString("rzp_live_secret"),
			WebhookSecret: SensitiveString("whsec_live"),
		}
		out := fmt.Sprintf("%v %s", billing.KeySecret, billing.WebhookSecret)
		assert.NotContains(t, out, "rzp_live_secret")
		assert.NotContains(t, out, "whsec_live")
		assert.Equal(t, "rzp_live_secret", billing.KeySecret.Value())
	})

	t.Run("Should keep the JWT secret out of JSON dumps", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.JWTSecret = SensitiveString("jwt-signing-key")
		cfg.Billing.KeyID = "rzp_test_key"
		data, err := json.Marshal(cfg)
		require.NoError(t, err)

		var dump struct {
			Auth struct {
				JWTSecret string `json:"JWTSecret"`
			}
			Billing struct {
				KeyID         string `json:"KeyID"`
				WebhookSecret string `json:"WebhookSecret"`
			}
		}
		require.NoError(t, json.Unmarshal(data, &dump))
		assert.Equal(t, "[REDACTED]", dump.Auth.JWTSecret)
		assert.Equal(t, "rzp_test_key", dump.Billing.KeyID)
		assert.Empty(t, dump.Billing.WebhookSecret, "unset secrets stay empty")
	})

	t.Run("Should accept secrets from JSON documents", func(t *testing.T) {
		var billing struct {
			KeySecret SensitiveString `json:"key_secret"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"key_secret":"rzp_secret"}`), &billing))
		assert.Equal(t, "rzp_secret", billing.KeySecret.Value())
		assert.Equal(t, "[REDACTED]", billing.KeySecret.String())
	})
}
