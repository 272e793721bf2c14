package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type Subscription struct {
	ID                 core.ID   `db:"id"                   json:"id"`
	OrgID              core.ID   `db:"org_id"               json:"org_id"`
	PlanCode           PlanCode  `db:"plan_code"            json:"plan_code"`
	Status             Status    `db:"status"               json:"status"`
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end"   json:"current_period_end"`
	CreatedAt          time.Time `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"           json:"updated_at"`
}

// Usable reports whether the organization may still write loan data.
func (s *Subscription) Usable() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case StatusTrialing, StatusActive, StatusPastDue:
		return true
	}
	return false
}

// NewTrial opens a trial on the starter plan.
func NewTrial(orgID core.ID, now time.Time, days int) *Subscription {
	return &Subscription{
		ID:                 core.MustNewID(),
		OrgID:              orgID,
		PlanCode:           PlanStarter,
		Status:             StatusTrialing,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 0, days),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Activate starts or extends a paid period on plan, counted from the later
// of now and the current period end.
func (s *Subscription) Activate(plan Plan, now time.Time) {
	start := now
	if s.CurrentPeriodEnd.After(now) && s.Status != StatusExpired && s.Status != StatusCancelled {
		start = s.CurrentPeriodEnd
	} else {
		s.CurrentPeriodStart = now
	}
	s.PlanCode = plan.Code
	s.Status = StatusActive
	s.CurrentPeriodEnd = plan.Extend(start)
	s.UpdatedAt = now
}

// Sweep moves a lapsed subscription to past_due or expired. It reports
// whether the status changed.
func (s *Subscription) Sweep(now time.Time, grace time.Duration) bool {
	if s.Status != StatusActive && s.Status != StatusTrialing && s.Status != StatusPastDue {
		return false
	}
	if !now.After(s.CurrentPeriodEnd) {
		return false
	}
	next := StatusPastDue
	if now.After(s.CurrentPeriodEnd.Add(grace)) {
		next = StatusExpired
	}
	if next == s.Status {
		return false
	}
	s.Status = next
	s.UpdatedAt = now
	return true
}

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID               core.ID         `db:"id"                 json:"id"`
	OrgID            core.ID         `db:"org_id"             json:"org_id"`
	SubscriptionID   core.ID         `db:"subscription_id"    json:"subscription_id"`
	PlanCode         PlanCode        `db:"plan_code"          json:"plan_code"`
	GatewayOrderID   string          `db:"gateway_order_id"   json:"gateway_order_id"`
	GatewayPaymentID string          `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Amount           decimal.Decimal `db:"amount"             json:"amount"`
	Currency         string          `db:"currency"           json:"currency"`
	Receipt          uuid.UUID       `db:"receipt"            json:"receipt"`
	Status           PaymentStatus   `db:"status"             json:"status"`
	CreatedAt        time.Time       `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"         json:"updated_at"`
}
