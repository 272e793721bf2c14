package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/shopspring/decimal"
)

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	FirstName      *string                   `json:"first_name"      validate:"omitempty,min=1,max=100"`
	LastName       *string                   `json:"last_name"       validate:"omitempty,max=100"`
	Email          *string                   `json:"email"           validate:"omitempty,email"`
	Phone          *string                   `json:"phone"           validate:"omitempty,phone_in"`
	DateOfBirth    *string                   `json:"date_of_birth"`
	PAN            *string                   `json:"pan"             validate:"omitempty,pan"`
	Aadhaar        *string                   `json:"aadhaar"`
	Gender         *string                   `json:"gender"          validate:"omitempty,oneof=male female other"`
	MaritalStatus  *string                   `json:"marital_status"  validate:"omitempty,oneof=single married divorced widowed"`
	Address        *applicant.Address        `json:"address"`
	EmploymentType *applicant.EmploymentType `json:"employment_type" validate:"omitempty,oneof=salaried self_employed business other"`
	EmployerName   *string                   `json:"employer_name"   validate:"omitempty,max=200"`
	MonthlyIncome  *decimal.Decimal          `json:"monthly_income"`
}

type UpdateApplicant struct {
	repo  applicant.Repository
	actor *model.User
	id    core.ID
	input *UpdateInput
	now   func() time.Time
}

func NewUpdateApplicant(
	repo applicant.Repository,
	actor *model.User,
	id core.ID,
	input *UpdateInput,
) *UpdateApplicant {
	return &UpdateApplicant{repo: repo, actor: actor, id: id, input: input, now: time.Now}
}

func (uc *UpdateApplicant) Execute(ctx context.Context) (*applicant.Applicant, error) {
	if err := uc.actor.Require(model.CapApplicantsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	a, err := uc.repo.Get(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	if err := uc.apply(a, now); err != nil {
		return nil, err
	}
	a.UpdatedAt = now
	if err := uc.repo.Update(ctx, a); err != nil {
		if errors.Is(err, applicant.ErrPANExists) || errors.Is(err, applicant.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update applicant: %w", err)
	}
	logger.FromContext(ctx).Info("Applicant updated", "org_id", a.OrgID, "applicant_id", a.ID)
	return a, nil
}

func (uc *UpdateApplicant) apply(a *applicant.Applicant, now time.Time) error {
	in := uc.input
	if in.FirstName != nil {
		a.FirstName = applicant.TitleName(*in.FirstName)
	}
	if in.LastName != nil {
		a.LastName = applicant.TitleName(*in.LastName)
	}
	if in.Email != nil {
		a.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		phone, err := normalizePhone(*in.Phone)
		if err != nil {
			return err
		}
		a.Phone = phone
	}
	if in.DateOfBirth != nil {
		dob, err := parseDateOfBirth(*in.DateOfBirth, now)
		if err != nil {
			return err
		}
		a.DateOfBirth = dob
	}
	if in.PAN != nil {
		a.PAN = core.NormalizePAN(*in.PAN)
	}
	if in.Aadhaar != nil {
		last4, err := aadhaarLast4(*in.Aadhaar)
		if err != nil {
			return err
		}
		a.AadhaarLast4 = last4
	}
	if in.Gender != nil {
		a.Gender = *in.Gender
	}
	if in.MaritalStatus != nil {
		a.MaritalStatus = *in.MaritalStatus
	}
	if in.Address != nil {
		a.Address = in.Address.Normalize()
	}
	if in.EmploymentType != nil {
		a.EmploymentType = *in.EmploymentType
	}
	if in.EmployerName != nil {
		a.EmployerName = strings.TrimSpace(*in.EmployerName)
	}
	if in.MonthlyIncome != nil {
		if err := checkIncome(*in.MonthlyIncome); err != nil {
			return err
		}
		a.MonthlyIncome = in.MonthlyIncome.Round(2)
	}
	return nil
}
