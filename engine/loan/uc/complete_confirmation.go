package uc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/shopspring/decimal"
)

type ConfirmationInput struct {
	Decision       loan.Decision    `json:"decision"        validate:"required,oneof=APPROVE REJECT HOLD"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount"`
	TenureMonths   int              `json:"tenure_months"   validate:"omitempty,min=1,max=480"`
	InterestRate   *decimal.Decimal `json:"interest_rate"`
	ProcessingFee  *decimal.Decimal `json:"processing_fee"`
	Remarks        string           `json:"remarks"         validate:"max=2000"`
}

type ConfirmationResult struct {
	Application  *loan.Application  `json:"application"`
	Confirmation *loan.Confirmation `json:"confirmation"`
	Review       *loan.Review       `json:"review"`
	Log          *loan.StatusLog    `json:"log"`
}

// CompleteConfirmation is CompleteLoanConfirmation. The confirmation upsert,
// review and status move commit together or not at all.
type CompleteConfirmation struct {
	repo    loan.Repository
	metrics *monitoring.DomainMetrics
	actor   *model.User
	id      core.ID
	input   *ConfirmationInput
}

func NewCompleteConfirmation(
	repo loan.Repository,
	metrics *monitoring.DomainMetrics,
	actor *model.User,
	id core.ID,
	input *ConfirmationInput,
) *CompleteConfirmation {
	return &CompleteConfirmation{repo: repo, metrics: metrics, actor: actor, id: id, input: input}
}

func (uc *CompleteConfirmation) Execute(ctx context.Context) (*ConfirmationResult, error) {
	if err := uc.actor.Require(model.CapLoanConfirm); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	orgID := uc.actor.OrgID
	var result *ConfirmationResult
	err := uc.repo.WithTransaction(ctx, func(tx loan.Repository) error {
		app, err := tx.GetApplicationForUpdate(ctx, orgID, uc.id)
		if err != nil {
			return err
		}
		if app.Status != loan.StatusUnderReview && app.Status != loan.StatusOnHold {
			return loan.ErrNotConfirmable
		}
		now := time.Now().UTC()
		conf, target, err := uc.decide(app, now)
		if err != nil {
			return err
		}
		if err := loan.ValidateTransition(app.Status, target); err != nil {
			return err
		}
		if err := tx.UpsertConfirmation(ctx, conf); err != nil {
			return err
		}
		review := &loan.Review{
			ID:            core.MustNewID(),
			OrgID:         orgID,
			ApplicationID: app.ID,
			ReviewerID:    uc.actor.ID,
			Decision:      conf.Decision,
			Remarks:       conf.Remarks,
			CreatedAt:     now,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		moved, err := transition(ctx, tx, orgID, app.ID, target, conf.Remarks, uc.actor.ID)
		if err != nil {
			return err
		}
		result = &ConfirmationResult{
			Application:  moved.Application,
			Confirmation: conf,
			Review:       review,
			Log:          moved.Log,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordTransition(ctx, uc.metrics, &TransitionResult{Application: result.Application, Log: result.Log})
	logger.FromContext(ctx).Info("Loan confirmation completed",
		"org_id", orgID, "application_id", uc.id, "decision", result.Confirmation.Decision)
	return result, nil
}

// decide builds the confirmation row for the decision and returns the
// status the application moves to.
func (uc *CompleteConfirmation) decide(app *loan.Application, now time.Time) (*loan.Confirmation, loan.Status, error) {
	in := uc.input
	conf := &loan.Confirmation{
		ApplicationID:  app.ID,
		OrgID:          app.OrgID,
		ApprovedAmount: zeroDecimal(),
		InterestRate:   zeroDecimal(),
		ProcessingFee:  zeroDecimal(),
		EMI:            zeroDecimal(),
		Decision:       in.Decision,
		Remarks:        strings.TrimSpace(in.Remarks),
		ConfirmedBy:    uc.actor.ID,
		ConfirmedAt:    now,
	}
	switch in.Decision {
	case loan.DecisionApprove:
		if err := uc.approveTerms(app, conf); err != nil {
			return nil, "", err
		}
		return conf, loan.StatusApproved, nil
	case loan.DecisionReject:
		if conf.Remarks == "" {
			return nil, "", core.Invalid("remarks", "a reason is required to reject")
		}
		return conf, loan.StatusRejected, nil
	case loan.DecisionHold:
		if conf.Remarks == "" {
			return nil, "", core.Invalid("remarks", "a reason is required to hold")
		}
		return conf, loan.StatusOnHold, nil
	}
	return nil, "", core.Invalid("decision", fmt.Sprintf("unknown decision %q", in.Decision))
}

func (uc *CompleteConfirmation) approveTerms(app *loan.Application, conf *loan.Confirmation) error {
	in := uc.input
	if in.ApprovedAmount == nil || !in.ApprovedAmount.IsPositive() {
		return core.Invalid("approved_amount", "is required and must be greater than zero")
	}
	if in.ApprovedAmount.GreaterThan(app.RequestedAmount) {
		return loan.ErrAmountTooHigh
	}
	if in.TenureMonths <= 0 {
		return core.Invalid("tenure_months", "is required to approve")
	}
	if in.InterestRate == nil || in.InterestRate.IsNegative() || in.InterestRate.GreaterThan(decimal.NewFromInt(100)) {
		return core.Invalid("interest_rate", "is required and must be between 0 and 100")
	}
	fee := decimal.Zero
	if in.ProcessingFee != nil {
		fee = in.ProcessingFee.Round(2)
	}
	amount := in.ApprovedAmount.Round(2)
	if fee.IsNegative() || fee.GreaterThanOrEqual(amount) {
		return core.Invalid("processing_fee", "must be non-negative and below the approved amount")
	}
	rate := in.InterestRate.Round(2)
	emi := loan.ComputeEMI(amount, rate, in.TenureMonths)
	conf.ApprovedAmount = &amount
	conf.TenureMonths = in.TenureMonths
	conf.InterestRate = &rate
	conf.ProcessingFee = &fee
	conf.EMI = &emi
	return nil
}

func zeroDecimal() *decimal.Decimal {
	z := decimal.Zero
	return &z
}
