package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

const sweepBatch = 500

// SweepExpired moves lapsed subscriptions to past_due or expired.
type SweepExpired struct {
	deps Deps
}

func NewSweepExpired(deps Deps) *SweepExpired {
	return &SweepExpired{deps: deps}
}

// Execute returns how many subscriptions changed status. Batches repeat
// until a short or unproductive batch comes back.
func (uc *SweepExpired) Execute(ctx context.Context) (int, error) {
	now := uc.deps.Now()
	grace := uc.deps.Settings.GracePeriod
	log := logger.FromContext(ctx)
	counts := map[billing.Status]int64{}
	for {
		lapsed, err := uc.deps.Repo.ListLapsed(ctx, now, grace, sweepBatch)
		if err != nil {
			return 0, fmt.Errorf("listing lapsed subscriptions: %w", err)
		}
		changed := 0
		for _, candidate := range lapsed {
			sub, err := uc.sweepOne(ctx, candidate.OrgID)
			if err != nil {
				log.Error("Failed to sweep subscription", "org_id", candidate.OrgID, "error", err)
				continue
			}
			if sub == nil {
				continue
			}
			changed++
			counts[sub.Status]++
			uc.deps.changed(sub.OrgID)
			log.Info("Subscription lapsed", "org_id", sub.OrgID, "status", sub.Status, "period_end", sub.CurrentPeriodEnd)
		}
		if len(lapsed) < sweepBatch || changed == 0 {
			break
		}
	}
	total := 0
	for status, n := range counts {
		uc.deps.Metrics.SubscriptionsSwept(ctx, string(status), n)
		total += int(n)
	}
	return total, nil
}

// sweepOne re-reads the subscription under a row lock so a capture that
// landed after the listing wins. It returns nil when nothing changed.
func (uc *SweepExpired) sweepOne(ctx context.Context, orgID core.ID) (*billing.Subscription, error) {
	var swept *billing.Subscription
	err := uc.deps.Repo.WithTransaction(ctx, func(tx billing.Repository) error {
		sub, err := tx.GetSubscriptionForUpdate(ctx, orgID)
		if err != nil {
			return err
		}
		if !sub.Sweep(uc.deps.Now(), uc.deps.Settings.GracePeriod) {
			return nil
		}
		if err := tx.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
		swept = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}
