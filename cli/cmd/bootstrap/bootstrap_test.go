package bootstrap

import (
	"bytes"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	authuc "github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintResult(t *testing.T) {
	result := &authuc.BootstrapResult{
		Organization: &model.Organization{ID: "org_1", Name: "Acme Finance"},
		Owner:        &model.User{ID: "usr_1", Email: "owner@acme.test"},
		APIKey:       "lf_secret",
	}

	t.Run("Should print the key and trial end", func(t *testing.T) {
		var buf bytes.Buffer
		trial := &billing.Subscription{CurrentPeriodEnd: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)}
		require.NoError(t, printResult(&buf, result, trial))
		out := buf.String()
		assert.Contains(t, out, "Acme Finance")
		assert.Contains(t, out, "owner@acme.test")
		assert.Contains(t, out, "lf_secret")
		assert.Contains(t, out, "2026-11-01T00:00:00Z")
	})

	t.Run("Should omit the trial line when no trial started", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printResult(&buf, result, nil))
		assert.NotContains(t, buf.String(), "Trial ends")
	})
}

func TestNewBootstrapCommand(t *testing.T) {
	t.Run("Should require org and email", func(t *testing.T) {
		cmd := NewBootstrapCommand()
		cmd.SetArgs([]string{"--org", "Acme"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email")
	})
}
