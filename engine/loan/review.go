package loan

import (
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

// Decision is the outcome code of a confirmation or review.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
	DecisionHold    Decision = "HOLD"
	// DecisionComment marks a review that records remarks without deciding.
	DecisionComment Decision = "COMMENT"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionHold, DecisionComment:
		return true
	}
	return false
}

type StatusLog struct {
	ID            core.ID   `db:"id"             json:"id"`
	OrgID         core.ID   `db:"org_id"         json:"org_id"`
	ApplicationID core.ID   `db:"application_id" json:"application_id"`
	FromStatus    Status    `db:"from_status"    json:"from_status"`
	ToStatus      Status    `db:"to_status"      json:"to_status"`
	Remarks       string    `db:"remarks"        json:"remarks,omitempty"`
	ChangedBy     core.ID   `db:"changed_by"     json:"changed_by"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}

type Review struct {
	ID            core.ID   `db:"id"             json:"id"`
	OrgID         core.ID   `db:"org_id"         json:"org_id"`
	ApplicationID core.ID   `db:"application_id" json:"application_id"`
	ReviewerID    core.ID   `db:"reviewer_id"    json:"reviewer_id"`
	Decision      Decision  `db:"decision"       json:"decision"`
	Remarks       string    `db:"remarks"        json:"remarks,omitempty"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}

// Confirmation holds the sanctioned terms. There is at most one per application.
type Confirmation struct {
	ApplicationID  core.ID          `db:"application_id"  json:"application_id"`
	OrgID          core.ID          `db:"org_id"          json:"org_id"`
	ApprovedAmount *decimal.Decimal `db:"approved_amount" json:"approved_amount,omitempty"`
	TenureMonths   int              `db:"tenure_months"   json:"tenure_months"`
	InterestRate   *decimal.Decimal `db:"interest_rate"   json:"interest_rate,omitempty"`
	ProcessingFee  *decimal.Decimal `db:"processing_fee"  json:"processing_fee,omitempty"`
	EMI            *decimal.Decimal `db:"emi"             json:"emi,omitempty"`
	Decision       Decision         `db:"decision"        json:"decision"`
	Remarks        string           `db:"remarks"         json:"remarks,omitempty"`
	ConfirmedBy    core.ID          `db:"confirmed_by"    json:"confirmed_by"`
	ConfirmedAt    time.Time        `db:"confirmed_at"    json:"confirmed_at"`
}
