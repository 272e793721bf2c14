package uc

import (
	"context"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/billing/razorpay"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
)

type Gateway interface {
	CreateOrder(ctx context.Context, req *razorpay.OrderRequest) (*razorpay.Order, error)
}

// Store keeps checkout replies for idempotent retries.
type Store interface {
	Key(parts ...string) string
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
}

type ApplicationCounter interface {
	CountApplicationsSince(ctx context.Context, orgID core.ID, since time.Time) (int, error)
}

type Settings struct {
	KeyID       string
	KeySecret   string
	TrialDays   int
	GracePeriod time.Duration
}

const defaultTrialDays = 14

func (s Settings) withDefaults() Settings {
	if s.TrialDays <= 0 {
		s.TrialDays = defaultTrialDays
	}
	return s
}

// Deps wires billing. Gateway may be nil when no keys are configured;
// checkout then fails with ErrGatewayDisabled.
type Deps struct {
	Repo         billing.Repository
	Gateway      Gateway
	Store        Store
	Applications ApplicationCounter
	Metrics      *monitoring.DomainMetrics
	Settings     Settings
	Now          func() time.Time
	// Changed is told about every organization whose subscription status
	// or period moved, after the change commits.
	Changed func(orgID core.ID)
}

func (d Deps) changed(orgID core.ID) {
	if d.Changed != nil {
		d.Changed(orgID)
	}
}

type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	deps.Settings = deps.Settings.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Factory{deps: deps}
}

func (f *Factory) Repository() billing.Repository { return f.deps.Repo }

// OnSubscriptionChange registers fn as the change listener. Call it before
// serving requests.
func (f *Factory) OnSubscriptionChange(fn func(orgID core.ID)) {
	f.deps.Changed = fn
}

func (f *Factory) ListPlans() *ListPlans {
	return &ListPlans{}
}

func (f *Factory) GetSubscription(orgID core.ID) *GetSubscription {
	return NewGetSubscription(f.deps.Repo, orgID)
}

func (f *Factory) StartTrial(orgID core.ID) *StartTrial {
	return NewStartTrial(f.deps, orgID)
}

func (f *Factory) CreateCheckoutOrder(actor *model.User, input *CheckoutInput) *CreateCheckoutOrder {
	return NewCreateCheckoutOrder(f.deps, actor, input)
}

func (f *Factory) VerifyCheckout(actor *model.User, input *VerifyInput) *VerifyCheckout {
	return NewVerifyCheckout(f.deps, actor, input)
}

func (f *Factory) ApplyWebhookEvent(body []byte) *ApplyWebhookEvent {
	return NewApplyWebhookEvent(f.deps, body)
}

func (f *Factory) CancelSubscription(actor *model.User) *CancelSubscription {
	return NewCancelSubscription(f.deps, actor)
}

func (f *Factory) SweepExpired() *SweepExpired {
	return NewSweepExpired(f.deps)
}

// Quota enforces plan limits for other domains.
func (f *Factory) Quota() *Quota {
	return NewQuota(f.deps)
}
