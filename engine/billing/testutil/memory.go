package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
)

// InMemoryRepo is a billing.Repository backed by maps. Transactions are
// serialized and roll back on error.
type InMemoryRepo struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	subs     map[core.ID]*billing.Subscription
	payments map[string]*billing.Payment
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		subs:     make(map[core.ID]*billing.Subscription),
		payments: make(map[string]*billing.Payment),
	}
}

// Seed stores sub as the organization's subscription.
func (r *InMemoryRepo) Seed(sub *billing.Subscription) *billing.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *sub
	r.subs[sub.OrgID] = &clone
	return sub
}

// Payment returns the stored payment for orderID, or nil.
func (r *InMemoryRepo) Payment(orderID string) *billing.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil
	}
	clone := *p
	return &clone
}

func (r *InMemoryRepo) CreateSubscription(_ context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.OrgID]; ok {
		return core.NewError(nil, core.CodeConflict, nil)
	}
	clone := *sub
	r.subs[sub.OrgID] = &clone
	return nil
}

func (r *InMemoryRepo) GetSubscription(_ context.Context, orgID core.ID) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[orgID]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	clone := *sub
	return &clone, nil
}

func (r *InMemoryRepo) GetSubscriptionForUpdate(ctx context.Context, orgID core.ID) (*billing.Subscription, error) {
	return r.GetSubscription(ctx, orgID)
}

func (r *InMemoryRepo) UpdateSubscription(_ context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.OrgID]; !ok {
		return billing.ErrSubscriptionNotFound
	}
	clone := *sub
	r.subs[sub.OrgID] = &clone
	return nil
}

func (r *InMemoryRepo) ListLapsed(
	_ context.Context,
	now time.Time,
	grace time.Duration,
	limit int,
) ([]*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*billing.Subscription, 0)
	for _, sub := range r.subs {
		cutoff := now
		if sub.Status == billing.StatusPastDue {
			cutoff = now.Add(-grace)
		}
		if sub.Usable() && sub.CurrentPeriodEnd.Before(cutoff) {
			clone := *sub
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentPeriodEnd.Before(out[j].CurrentPeriodEnd) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepo) CreatePayment(_ context.Context, p *billing.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.payments[p.GatewayOrderID] = &clone
	return nil
}

func (r *InMemoryRepo) GetPaymentByOrder(_ context.Context, orderID string) (*billing.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil, billing.ErrPaymentNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *InMemoryRepo) UpdatePayment(_ context.Context, p *billing.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.GatewayOrderID]; !ok {
		return billing.ErrPaymentNotFound
	}
	clone := *p
	r.payments[p.GatewayOrderID] = &clone
	return nil
}

func (r *InMemoryRepo) WithTransaction(_ context.Context, fn func(billing.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	subs := make(map[core.ID]billing.Subscription, len(r.subs))
	for k, v := range r.subs {
		subs[k] = *v
	}
	payments := make(map[string]billing.Payment, len(r.payments))
	for k, v := range r.payments {
		payments[k] = *v
	}
	r.mu.Unlock()
	if err := fn(r); err != nil {
		r.mu.Lock()
		r.subs = make(map[core.ID]*billing.Subscription, len(subs))
		for k, v := range subs {
			r.subs[k] = &v
		}
		r.payments = make(map[string]*billing.Payment, len(payments))
		for k, v := range payments {
			r.payments[k] = &v
		}
		r.mu.Unlock()
		return err
	}
	return nil
}
