package uc

import (
	"context"
	"errors"

	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/billing/razorpay"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/webhook"
	"github.com/lendflow/lendflow/pkg/logger"
)

// ApplyWebhookEvent applies a verified, first-seen gateway event. Signature
// checks and delivery dedupe happen in the webhook orchestrator.
type ApplyWebhookEvent struct {
	deps Deps
	body []byte
}

func NewApplyWebhookEvent(deps Deps, body []byte) *ApplyWebhookEvent {
	return &ApplyWebhookEvent{deps: deps, body: body}
}

func (uc *ApplyWebhookEvent) Execute(ctx context.Context) (webhook.Outcome, error) {
	ev, err := razorpay.ParseEvent(uc.body)
	if err != nil {
		return webhook.Outcome{}, core.NewError(err, core.CodeInvalidInput, nil)
	}
	out := webhook.Outcome{Event: ev.Type}
	switch ev.Type {
	case razorpay.EventPaymentCaptured, razorpay.EventOrderPaid:
		if ev.OrderID == "" {
			return out, core.Invalid("payload.payment.entity.order_id", "is required")
		}
		_, changed, err := capture(ctx, uc.deps, "", ev.OrderID, ev.PaymentID)
		switch {
		case errors.Is(err, billing.ErrPaymentNotFound):
			logger.FromContext(ctx).Warn("Webhook for unknown order", "event", ev.Type, "order_id", ev.OrderID)
			out.Ignored = true
			return out, nil
		case err != nil:
			return out, err
		}
		out.Ignored = !changed
		return out, nil
	case razorpay.EventPaymentFailed:
		ignored, err := uc.fail(ctx, ev)
		out.Ignored = ignored
		return out, err
	default:
		out.Ignored = true
		return out, nil
	}
}

// fail records a failed attempt. Only created payments are marked, so a
// later capture of the same order still wins.
func (uc *ApplyWebhookEvent) fail(ctx context.Context, ev *razorpay.Event) (bool, error) {
	payment, err := uc.deps.Repo.GetPaymentByOrder(ctx, ev.OrderID)
	switch {
	case errors.Is(err, billing.ErrPaymentNotFound):
		return true, nil
	case err != nil:
		return false, err
	}
	if payment.Status != billing.PaymentCreated {
		return true, nil
	}
	payment.Status = billing.PaymentFailed
	payment.GatewayPaymentID = ev.PaymentID
	payment.UpdatedAt = uc.deps.Now()
	if err := uc.deps.Repo.UpdatePayment(ctx, payment); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Warn("Payment failed",
		"org_id", payment.OrgID, "order_id", ev.OrderID, "reason", ev.ErrorDescription)
	return false, nil
}
