package uc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
)

// Quota checks plan limits. It satisfies the loan domain's quota hook.
type Quota struct {
	deps Deps
}

func NewQuota(deps Deps) *Quota {
	return &Quota{deps: deps}
}

// CheckApplicationQuota fails when the organization has no usable
// subscription or has opened its monthly allowance of applications.
func (q *Quota) CheckApplicationQuota(ctx context.Context, orgID core.ID) error {
	sub, err := q.deps.Repo.GetSubscription(ctx, orgID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return billing.ErrSubscriptionInactive
		}
		return err
	}
	if !sub.Usable() {
		return billing.ErrSubscriptionInactive
	}
	plan, ok := billing.LookupPlan(sub.PlanCode)
	if !ok || plan.MaxApplicationsPerMonth == 0 || q.deps.Applications == nil {
		return nil
	}
	now := q.deps.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	used, err := q.deps.Applications.CountApplicationsSince(ctx, orgID, monthStart)
	if err != nil {
		return fmt.Errorf("counting applications: %w", err)
	}
	if used >= plan.MaxApplicationsPerMonth {
		return billing.QuotaExceeded("applications per month", plan.MaxApplicationsPerMonth)
	}
	return nil
}
