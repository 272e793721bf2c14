package billing

import (
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlans(t *testing.T) {
	t.Run("Should price plans in paise", func(t *testing.T) {
		plan, ok := LookupPlan(PlanGrowth)
		require.True(t, ok)
		assert.Equal(t, int64(999900), plan.MinorUnits())
		_, ok = LookupPlan("platinum")
		assert.False(t, ok)
	})

	t.Run("Should extend by the plan interval", func(t *testing.T) {
		from := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
		starter, _ := LookupPlan(PlanStarter)
		enterprise, _ := LookupPlan(PlanEnterprise)
		assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), starter.Extend(from))
		assert.Equal(t, time.Date(2027, 1, 31, 10, 0, 0, 0, time.UTC), enterprise.Extend(from))
	})
}

func TestSubscription(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	growth, _ := LookupPlan(PlanGrowth)

	t.Run("Should stack a payment on top of the remaining trial", func(t *testing.T) {
		sub := NewTrial(core.MustNewID(), now, 14)
		sub.Activate(growth, now.AddDate(0, 0, 4))
		assert.Equal(t, StatusActive, sub.Status)
		assert.Equal(t, PlanGrowth, sub.PlanCode)
		assert.Equal(t, now.AddDate(0, 1, 14), sub.CurrentPeriodEnd)
	})

	t.Run("Should restart the period after expiry", func(t *testing.T) {
		sub := NewTrial(core.MustNewID(), now, 14)
		sub.Status = StatusExpired
		paidAt := now.AddDate(0, 2, 0)
		sub.Activate(growth, paidAt)
		assert.Equal(t, paidAt, sub.CurrentPeriodStart)
		assert.Equal(t, paidAt.AddDate(0, 1, 0), sub.CurrentPeriodEnd)
	})

	t.Run("Should move through past_due to expired", func(t *testing.T) {
		sub := NewTrial(core.MustNewID(), now, 14)
		sub.Activate(growth, now)
		end := sub.CurrentPeriodEnd
		grace := 72 * time.Hour

		assert.False(t, sub.Sweep(end.Add(-time.Minute), grace))
		assert.True(t, sub.Sweep(end.Add(time.Hour), grace))
		assert.Equal(t, StatusPastDue, sub.Status)
		assert.True(t, sub.Usable())
		assert.False(t, sub.Sweep(end.Add(2*time.Hour), grace))
		assert.True(t, sub.Sweep(end.Add(grace+time.Hour), grace))
		assert.Equal(t, StatusExpired, sub.Status)
		assert.False(t, sub.Usable())
	})

	t.Run("Should give lapsed trials the same grace", func(t *testing.T) {
		sub := NewTrial(core.MustNewID(), now, 14)
		assert.True(t, sub.Sweep(now.AddDate(0, 0, 15), 72*time.Hour))
		assert.Equal(t, StatusPastDue, sub.Status)
		assert.True(t, sub.Sweep(now.AddDate(0, 0, 18), 72*time.Hour))
		assert.Equal(t, StatusExpired, sub.Status)
	})
}

func TestSignature(t *testing.T) {
	t.Run("Should verify the checkout signature", func(t *testing.T) {
		payload := CheckoutPayload("order_abc", "pay_xyz")
		sig := Sign("s3cret", payload)
		assert.True(t, VerifySignature("s3cret", payload, sig))
		assert.False(t, VerifySignature("other", payload, sig))
		assert.False(t, VerifySignature("s3cret", payload, ""))
	})
}
