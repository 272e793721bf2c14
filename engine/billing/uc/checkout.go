package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/billing/razorpay"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/shopspring/decimal"
)

const checkoutReplayTTL = 30 * time.Minute

type CheckoutInput struct {
	PlanCode billing.PlanCode `json:"plan_code" validate:"required"`
	// IdempotencyKey replays the first checkout created with the same key.
	IdempotencyKey string `json:"-"`
}

// Checkout is what the browser needs to open the gateway's payment sheet.
type Checkout struct {
	KeyID     string           `json:"key_id"`
	OrderID   string           `json:"order_id"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	Receipt   uuid.UUID        `json:"receipt"`
	PlanCode  billing.PlanCode `json:"plan_code"`
	PaymentID core.ID          `json:"payment_id"`
}

type CreateCheckoutOrder struct {
	deps  Deps
	actor *model.User
	input *CheckoutInput
}

func NewCreateCheckoutOrder(deps Deps, actor *model.User, input *CheckoutInput) *CreateCheckoutOrder {
	return &CreateCheckoutOrder{deps: deps, actor: actor, input: input}
}

func (uc *CreateCheckoutOrder) Execute(ctx context.Context) (*Checkout, error) {
	if err := uc.actor.Require(model.CapBillingManage); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	plan, ok := billing.LookupPlan(uc.input.PlanCode)
	if !ok {
		return nil, billing.ErrUnknownPlan
	}
	if uc.deps.Gateway == nil {
		return nil, billing.ErrGatewayDisabled
	}
	replayKey := uc.replayKey()
	if replayKey != "" {
		var prior Checkout
		err := uc.deps.Store.GetJSON(ctx, replayKey, &prior)
		switch {
		case err == nil:
			if prior.PlanCode != plan.Code {
				return nil, core.Invalid("idempotency_key", "already used for another plan")
			}
			return &prior, nil
		case !errors.Is(err, cache.ErrNotFound):
			return nil, fmt.Errorf("reading checkout replay: %w", err)
		}
	}
	sub, err := uc.deps.Repo.GetSubscription(ctx, uc.actor.OrgID)
	if err != nil {
		return nil, err
	}
	receipt := uuid.New()
	started := time.Now()
	order, err := uc.deps.Gateway.CreateOrder(ctx, &razorpay.OrderRequest{
		Amount:   plan.MinorUnits(),
		Currency: plan.Currency,
		Receipt:  receipt.String(),
		Notes: map[string]string{
			"org_id": uc.actor.OrgID.String(),
			"plan":   string(plan.Code),
		},
	})
	uc.deps.Metrics.GatewayCall(ctx, "razorpay", "create_order", time.Since(started).Seconds(), err == nil)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("creating gateway order: %w", err), core.CodeUpstream, nil)
	}
	now := uc.deps.Now()
	payment := &billing.Payment{
		ID:             core.MustNewID(),
		OrgID:          uc.actor.OrgID,
		SubscriptionID: sub.ID,
		PlanCode:       plan.Code,
		GatewayOrderID: order.ID,
		Amount:         decimal.New(order.Amount, -2),
		Currency:       order.Currency,
		Receipt:        receipt,
		Status:         billing.PaymentCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.deps.Repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}
	checkout := &Checkout{
		KeyID:     uc.deps.Settings.KeyID,
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Receipt:   receipt,
		PlanCode:  plan.Code,
		PaymentID: payment.ID,
	}
	log := logger.FromContext(ctx)
	if replayKey != "" {
		if err := uc.deps.Store.SetJSON(ctx, replayKey, checkout, checkoutReplayTTL); err != nil {
			log.Warn("Failed to store checkout replay", "org_id", uc.actor.OrgID, "error", err)
		}
	}
	log.Info("Checkout order created",
		"org_id", uc.actor.OrgID, "plan", plan.Code, "order_id", order.ID, "amount", order.Amount)
	return checkout, nil
}

func (uc *CreateCheckoutOrder) replayKey() string {
	key := strings.TrimSpace(uc.input.IdempotencyKey)
	if key == "" || uc.deps.Store == nil {
		return ""
	}
	return uc.deps.Store.Key("billing", "checkout", uc.actor.OrgID.String(), key)
}

type VerifyInput struct {
	OrderID   string `json:"razorpay_order_id"   validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature"  validate:"required"`
}

// VerifyCheckout confirms a payment from the browser callback. The webhook
// may have captured it already, in which case this is a no-op.
type VerifyCheckout struct {
	deps  Deps
	actor *model.User
	input *VerifyInput
}

func NewVerifyCheckout(deps Deps, actor *model.User, input *VerifyInput) *VerifyCheckout {
	return &VerifyCheckout{deps: deps, actor: actor, input: input}
}

func (uc *VerifyCheckout) Execute(ctx context.Context) (*SubscriptionView, error) {
	if err := uc.actor.Require(model.CapBillingManage); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	payload := billing.CheckoutPayload(uc.input.OrderID, uc.input.PaymentID)
	if !billing.VerifySignature(uc.deps.Settings.KeySecret, payload, uc.input.Signature) {
		return nil, billing.ErrInvalidSignature
	}
	sub, _, err := capture(ctx, uc.deps, uc.actor.OrgID, uc.input.OrderID, uc.input.PaymentID)
	if err != nil {
		return nil, err
	}
	plan, _ := billing.LookupPlan(sub.PlanCode)
	return &SubscriptionView{Subscription: sub, Plan: plan, Usable: sub.Usable()}, nil
}

// capture marks the order's payment paid and extends the subscription in one
// transaction. A zero orgID skips the ownership check for webhooks. The
// bool reports whether anything changed.
func capture(ctx context.Context, deps Deps, orgID core.ID, orderID, paymentID string) (*billing.Subscription, bool, error) {
	var sub *billing.Subscription
	changed := false
	err := deps.Repo.WithTransaction(ctx, func(tx billing.Repository) error {
		payment, err := tx.GetPaymentByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !orgID.IsZero() && payment.OrgID != orgID {
			return billing.ErrPaymentNotFound
		}
		sub, err = tx.GetSubscriptionForUpdate(ctx, payment.OrgID)
		if err != nil {
			return err
		}
		if payment.Status == billing.PaymentPaid {
			return nil
		}
		plan, ok := billing.LookupPlan(payment.PlanCode)
		if !ok {
			return billing.ErrUnknownPlan
		}
		now := deps.Now()
		payment.Status = billing.PaymentPaid
		if paymentID != "" {
			payment.GatewayPaymentID = paymentID
		}
		payment.UpdatedAt = now
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		sub.Activate(plan, now)
		changed = true
		return tx.UpdateSubscription(ctx, sub)
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		deps.changed(sub.OrgID)
		logger.FromContext(ctx).Info("Payment captured",
			"org_id", sub.OrgID, "order_id", orderID, "plan", sub.PlanCode, "period_end", sub.CurrentPeriodEnd)
	}
	return sub, changed, nil
}
