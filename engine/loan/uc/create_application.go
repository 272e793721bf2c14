package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/shopspring/decimal"
)

const numberAttempts = 3

type CreateInput struct {
	ApplicantID     core.ID         `json:"applicant_id"     validate:"required"`
	Product         loan.Product    `json:"product"          validate:"required,oneof=personal business home vehicle gold education"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	TenureMonths    int             `json:"tenure_months"    validate:"required,min=1,max=480"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	Purpose         string          `json:"purpose"          validate:"max=500"`
}

type CreateApplication struct {
	repo       loan.Repository
	applicants ApplicantReader
	quota      Quota
	actor      *model.User
	input      *CreateInput
}

func NewCreateApplication(
	repo loan.Repository,
	applicants ApplicantReader,
	quota Quota,
	actor *model.User,
	input *CreateInput,
) *CreateApplication {
	return &CreateApplication{repo: repo, applicants: applicants, quota: quota, actor: actor, input: input}
}

// Execute opens a draft application for an existing applicant.
func (uc *CreateApplication) Execute(ctx context.Context) (*loan.Application, error) {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	if err := validateTerms(uc.input.RequestedAmount, uc.input.InterestRate); err != nil {
		return nil, err
	}
	orgID := uc.actor.OrgID
	if _, err := uc.applicants.Get(ctx, orgID, uc.input.ApplicantID); err != nil {
		return nil, err
	}
	if uc.quota != nil {
		if err := uc.quota.CheckApplicationQuota(ctx, orgID); err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	app := &loan.Application{
		ID:              core.MustNewID(),
		OrgID:           orgID,
		ApplicantID:     uc.input.ApplicantID,
		Product:         uc.input.Product,
		RequestedAmount: uc.input.RequestedAmount.Round(2),
		TenureMonths:    uc.input.TenureMonths,
		InterestRate:    uc.input.InterestRate.Round(2),
		Purpose:         strings.TrimSpace(uc.input.Purpose),
		Status:          loan.StatusDraft,
		CreatedBy:       uc.actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var err error
	for range numberAttempts {
		if app.Number, err = loan.NewNumber(now); err != nil {
			return nil, err
		}
		err = uc.repo.CreateApplication(ctx, app)
		if !errors.Is(err, loan.ErrNumberExists) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	logger.FromContext(ctx).Info("Loan application created",
		"org_id", orgID, "application_id", app.ID, "number", app.Number)
	return app, nil
}

func validateTerms(amount, rate decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.Invalid("requested_amount", "must be greater than zero")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return core.Invalid("interest_rate", "must be between 0 and 100")
	}
	return nil
}
