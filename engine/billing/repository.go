package billing

import (
	"context"
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

type Repository interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, orgID core.ID) (*Subscription, error)
	// GetSubscriptionForUpdate locks the row until the surrounding
	// transaction ends.
	GetSubscriptionForUpdate(ctx context.Context, orgID core.ID) (*Subscription, error)
	UpdateSubscription(ctx context.Context, sub *Subscription) error
	// ListLapsed returns subscriptions due a sweep at now: trialing or
	// active ones past their period end, and past_due ones past end plus grace.
	ListLapsed(ctx context.Context, now time.Time, grace time.Duration, limit int) ([]*Subscription, error)

	CreatePayment(ctx context.Context, p *Payment) error
	GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error

	WithTransaction(ctx context.Context, fn func(Repository) error) error
}
