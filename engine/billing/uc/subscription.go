package uc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

type ListPlans struct{}

func (uc *ListPlans) Execute(_ context.Context) ([]billing.Plan, error) {
	return billing.Plans(), nil
}

// SubscriptionView is the subscription with its plan resolved.
type SubscriptionView struct {
	*billing.Subscription
	Plan   billing.Plan `json:"plan"`
	Usable bool         `json:"usable"`
}

type GetSubscription struct {
	repo  billing.Repository
	orgID core.ID
}

func NewGetSubscription(repo billing.Repository, orgID core.ID) *GetSubscription {
	return &GetSubscription{repo: repo, orgID: orgID}
}

func (uc *GetSubscription) Execute(ctx context.Context) (*SubscriptionView, error) {
	sub, err := uc.repo.GetSubscription(ctx, uc.orgID)
	if err != nil {
		return nil, err
	}
	plan, _ := billing.LookupPlan(sub.PlanCode)
	return &SubscriptionView{Subscription: sub, Plan: plan, Usable: sub.Usable()}, nil
}

// StartTrial gives a new organization its trial. An existing subscription
// is returned unchanged.
type StartTrial struct {
	deps  Deps
	orgID core.ID
}

func NewStartTrial(deps Deps, orgID core.ID) *StartTrial {
	return &StartTrial{deps: deps, orgID: orgID}
}

func (uc *StartTrial) Execute(ctx context.Context) (*billing.Subscription, error) {
	existing, err := uc.deps.Repo.GetSubscription(ctx, uc.orgID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, billing.ErrSubscriptionNotFound):
		return nil, fmt.Errorf("loading subscription: %w", err)
	}
	sub := billing.NewTrial(uc.orgID, uc.deps.Now(), uc.deps.Settings.TrialDays)
	if err := uc.deps.Repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating trial: %w", err)
	}
	logger.FromContext(ctx).Info("Trial started",
		"org_id", uc.orgID, "plan", sub.PlanCode, "ends_at", sub.CurrentPeriodEnd)
	return sub, nil
}

type CancelSubscription struct {
	deps  Deps
	actor *model.User
}

func NewCancelSubscription(deps Deps, actor *model.User) *CancelSubscription {
	return &CancelSubscription{deps: deps, actor: actor}
}

func (uc *CancelSubscription) Execute(ctx context.Context) (*billing.Subscription, error) {
	if err := uc.actor.Require(model.CapBillingManage); err != nil {
		return nil, err
	}
	var sub *billing.Subscription
	err := uc.deps.Repo.WithTransaction(ctx, func(tx billing.Repository) error {
		var err error
		sub, err = tx.GetSubscriptionForUpdate(ctx, uc.actor.OrgID)
		if err != nil {
			return err
		}
		if sub.Status == billing.StatusCancelled || sub.Status == billing.StatusExpired {
			return billing.ErrAlreadyCancelled
		}
		sub.Status = billing.StatusCancelled
		sub.UpdatedAt = uc.deps.Now()
		return tx.UpdateSubscription(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	uc.deps.changed(sub.OrgID)
	logger.FromContext(ctx).Info("Subscription cancelled", "org_id", sub.OrgID, "by", uc.actor.ID)
	return sub, nil
}
