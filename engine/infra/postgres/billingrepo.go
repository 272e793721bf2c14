package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
)

var subscriptionColumns = []string{
	"id", "org_id", "plan_code", "status", "current_period_start", "current_period_end",
	"created_at", "updated_at",
}

var paymentColumns = []string{
	"id", "org_id", "subscription_id", "plan_code", "gateway_order_id", "gateway_payment_id",
	"amount", "currency", "receipt", "status", "created_at", "updated_at",
}

var errSubscriptionLockOutsideTx = errors.New("GetSubscriptionForUpdate requires transactional context")

// BillingRepo implements billing.Repository.
type BillingRepo struct {
	db   DB
	inTx bool
}

func NewBillingRepo(db DB) *BillingRepo {
	return &BillingRepo{db: db}
}

func (r *BillingRepo) WithTransaction(ctx context.Context, fn func(billing.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&BillingRepo{db: tx, inTx: true})
	})
}

func (r *BillingRepo) CreateSubscription(ctx context.Context, sub *billing.Subscription) error {
	_, err := exec(ctx, r.db, psql.Insert("subscriptions").
		Columns(subscriptionColumns...).
		Values(
			sub.ID, sub.OrgID, sub.PlanCode, sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
			sub.CreatedAt, sub.UpdatedAt,
		))
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return core.NewError(err, core.CodeConflict, map[string]any{"org_id": sub.OrgID})
	default:
		return fmt.Errorf("inserting subscription: %w", err)
	}
}

func (r *BillingRepo) getSubscription(ctx context.Context, orgID core.ID, lock bool) (*billing.Subscription, error) {
	sb := psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(squirrel.Eq{"org_id": orgID})
	if lock {
		sb = sb.Suffix("FOR UPDATE")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var sub billing.Subscription
	if err := pgxscan.Get(ctx, r.db, &sub, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, billing.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scanning subscription: %w", err)
	}
	return &sub, nil
}

func (r *BillingRepo) GetSubscription(ctx context.Context, orgID core.ID) (*billing.Subscription, error) {
	return r.getSubscription(ctx, orgID, false)
}

func (r *BillingRepo) GetSubscriptionForUpdate(ctx context.Context, orgID core.ID) (*billing.Subscription, error) {
	if !r.inTx {
		return nil, errSubscriptionLockOutsideTx
	}
	return r.getSubscription(ctx, orgID, true)
}

func (r *BillingRepo) UpdateSubscription(ctx context.Context, sub *billing.Subscription) error {
	tag, err := exec(ctx, r.db, psql.Update("subscriptions").
		SetMap(map[string]any{
			"plan_code":            sub.PlanCode,
			"status":               sub.Status,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"updated_at":           sub.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": sub.ID, "org_id": sub.OrgID}))
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrSubscriptionNotFound
	}
	return nil
}

func (r *BillingRepo) ListLapsed(
	ctx context.Context,
	now time.Time,
	grace time.Duration,
	limit int,
) ([]*billing.Subscription, error) {
	var subs []*billing.Subscription
	err := selectAll(ctx, r.db, &subs, psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"status": []billing.Status{billing.StatusTrialing, billing.StatusActive}},
				squirrel.Lt{"current_period_end": now},
			},
			squirrel.And{
				squirrel.Eq{"status": billing.StatusPastDue},
				squirrel.Lt{"current_period_end": now.Add(-grace)},
			},
		}).
		OrderBy("current_period_end", "id").
		Limit(uint64(max(limit, 1))))
	if err != nil {
		return nil, fmt.Errorf("listing lapsed subscriptions: %w", err)
	}
	return subs, nil
}

func (r *BillingRepo) CreatePayment(ctx context.Context, p *billing.Payment) error {
	_, err := exec(ctx, r.db, psql.Insert("payments").
		Columns(paymentColumns...).
		Values(
			p.ID, p.OrgID, p.SubscriptionID, p.PlanCode, p.GatewayOrderID, p.GatewayPaymentID,
			p.Amount, p.Currency, p.Receipt, p.Status, p.CreatedAt, p.UpdatedAt,
		))
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return core.NewError(err, core.CodeConflict, map[string]any{"gateway_order_id": p.GatewayOrderID})
	default:
		return fmt.Errorf("inserting payment: %w", err)
	}
}

// GetPaymentByOrder looks up by gateway order id, which is unique across
// organizations.
func (r *BillingRepo) GetPaymentByOrder(ctx context.Context, orderID string) (*billing.Payment, error) {
	query, args, err := psql.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"gateway_order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var p billing.Payment
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, billing.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scanning payment: %w", err)
	}
	return &p, nil
}

func (r *BillingRepo) UpdatePayment(ctx context.Context, p *billing.Payment) error {
	tag, err := exec(ctx, r.db, psql.Update("payments").
		SetMap(map[string]any{
			"gateway_payment_id": p.GatewayPaymentID,
			"status":             p.Status,
			"updated_at":         p.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrPaymentNotFound
	}
	return nil
}
