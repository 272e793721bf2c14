package billing

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", core.ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment %w", core.ErrNotFound)
	ErrUnknownPlan          = core.Invalid("plan_code", "unknown plan")
	ErrInvalidSignature     = core.Invalid("razorpay_signature", "does not match the order and payment")
	ErrSubscriptionInactive = core.NewError(
		errors.New("an active subscription is required"),
		core.CodePaymentRequired,
		nil,
	)
	ErrAlreadyCancelled = core.NewError(errors.New("subscription is already closed"), core.CodeConflict, nil)
	ErrGatewayDisabled  = core.NewError(errors.New("payment gateway is not configured"), core.CodeUpstream, nil)
)

// QuotaExceeded reports a plan limit that has been reached.
func QuotaExceeded(resource string, limit int) error {
	return core.NewError(
		fmt.Errorf("plan allows %d %s", limit, resource),
		core.CodeLimitExceeded,
		map[string]any{"resource": resource, "limit": limit},
	)
}
