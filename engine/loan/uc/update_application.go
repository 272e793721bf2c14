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

type UpdateInput struct {
	Product         *loan.Product    `json:"product"          validate:"omitempty,oneof=personal business home vehicle gold education"`
	RequestedAmount *decimal.Decimal `json:"requested_amount"`
	TenureMonths    *int             `json:"tenure_months"    validate:"omitempty,min=1,max=480"`
	InterestRate    *decimal.Decimal `json:"interest_rate"`
	Purpose         *string          `json:"purpose"          validate:"omitempty,max=500"`
}

type UpdateApplication struct {
	repo  loan.Repository
	actor *model.User
	id    core.ID
	input *UpdateInput
}

func NewUpdateApplication(repo loan.Repository, actor *model.User, id core.ID, input *UpdateInput) *UpdateApplication {
	return &UpdateApplication{repo: repo, actor: actor, id: id, input: input}
}

// Execute edits terms while the application is draft, submitted or on hold.
// The row is locked so a concurrent status change cannot slip in between.
func (uc *UpdateApplication) Execute(ctx context.Context) (*loan.Application, error) {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	var app *loan.Application
	err := uc.repo.WithTransaction(ctx, func(tx loan.Repository) error {
		var err error
		app, err = tx.GetApplicationForUpdate(ctx, uc.actor.OrgID, uc.id)
		if err != nil {
			return err
		}
		if !app.Editable() {
			return loan.ErrNotEditable
		}
		if err := uc.apply(app); err != nil {
			return err
		}
		app.UpdatedAt = time.Now().UTC()
		return tx.UpdateApplication(ctx, app)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	logger.FromContext(ctx).Info("Loan application updated", "org_id", app.OrgID, "application_id", app.ID)
	return app, nil
}

func (uc *UpdateApplication) apply(app *loan.Application) error {
	in := uc.input
	if in.Product != nil {
		app.Product = *in.Product
	}
	if in.RequestedAmount != nil {
		app.RequestedAmount = in.RequestedAmount.Round(2)
	}
	if in.TenureMonths != nil {
		app.TenureMonths = *in.TenureMonths
	}
	if in.InterestRate != nil {
		app.InterestRate = in.InterestRate.Round(2)
	}
	if in.Purpose != nil {
		app.Purpose = strings.TrimSpace(*in.Purpose)
	}
	return validateTerms(app.RequestedAmount, app.InterestRate)
}
