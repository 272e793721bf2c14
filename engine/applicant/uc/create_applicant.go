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

// CreateInput is the intake form for a new applicant.
type CreateInput struct {
	FirstName      string                   `json:"first_name"      validate:"required,max=100"`
	LastName       string                   `json:"last_name"       validate:"max=100"`
	Email          string                   `json:"email"           validate:"omitempty,email"`
	Phone          string                   `json:"phone"           validate:"required,phone_in"`
	DateOfBirth    string                   `json:"date_of_birth"   validate:"required"`
	PAN            string                   `json:"pan"             validate:"required,pan"`
	Aadhaar        string                   `json:"aadhaar"`
	Gender         string                   `json:"gender"          validate:"omitempty,oneof=male female other"`
	MaritalStatus  string                   `json:"marital_status"  validate:"omitempty,oneof=single married divorced widowed"`
	Address        applicant.Address        `json:"address"`
	EmploymentType applicant.EmploymentType `json:"employment_type" validate:"required,oneof=salaried self_employed business other"`
	EmployerName   string                   `json:"employer_name"   validate:"max=200"`
	MonthlyIncome  decimal.Decimal          `json:"monthly_income"`
}

type CreateApplicant struct {
	repo  applicant.Repository
	actor *model.User
	input *CreateInput
	now   func() time.Time
}

func NewCreateApplicant(repo applicant.Repository, actor *model.User, input *CreateInput) *CreateApplicant {
	return &CreateApplicant{repo: repo, actor: actor, input: input, now: time.Now}
}

func (uc *CreateApplicant) Execute(ctx context.Context) (*applicant.Applicant, error) {
	if err := uc.actor.Require(model.CapApplicantsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	dob, err := parseDateOfBirth(uc.input.DateOfBirth, now)
	if err != nil {
		return nil, err
	}
	phone, err := normalizePhone(uc.input.Phone)
	if err != nil {
		return nil, err
	}
	last4, err := aadhaarLast4(uc.input.Aadhaar)
	if err != nil {
		return nil, err
	}
	if err := checkIncome(uc.input.MonthlyIncome); err != nil {
		return nil, err
	}
	a := &applicant.Applicant{
		ID:             core.MustNewID(),
		OrgID:          uc.actor.OrgID,
		FirstName:      applicant.TitleName(uc.input.FirstName),
		LastName:       applicant.TitleName(uc.input.LastName),
		Email:          strings.ToLower(strings.TrimSpace(uc.input.Email)),
		Phone:          phone,
		DateOfBirth:    dob,
		PAN:            core.NormalizePAN(uc.input.PAN),
		AadhaarLast4:   last4,
		Gender:         uc.input.Gender,
		MaritalStatus:  uc.input.MaritalStatus,
		Address:        uc.input.Address.Normalize(),
		EmploymentType: uc.input.EmploymentType,
		EmployerName:   strings.TrimSpace(uc.input.EmployerName),
		MonthlyIncome:  uc.input.MonthlyIncome.Round(2),
		CreatedBy:      uc.actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, a); err != nil {
		if errors.Is(err, applicant.ErrPANExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create applicant: %w", err)
	}
	logger.FromContext(ctx).Info("Applicant created", "org_id", a.OrgID, "applicant_id", a.ID)
	return a, nil
}
