package uc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/party"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/shopspring/decimal"
)

type Input struct {
	Kind          party.Kind        `json:"kind"           validate:"required,oneof=co_applicant guarantor"`
	FirstName     string            `json:"first_name"     validate:"required,max=100"`
	LastName      string            `json:"last_name"      validate:"max=100"`
	Relationship  string            `json:"relationship"   validate:"max=50"`
	Email         string            `json:"email"          validate:"omitempty,email"`
	Phone         string            `json:"phone"          validate:"required,phone_in"`
	PAN           string            `json:"pan"            validate:"required,pan"`
	MonthlyIncome decimal.Decimal   `json:"monthly_income"`
	Address       applicant.Address `json:"address"`
}

type AddParty struct {
	repo       party.Repository
	applicants ApplicantReader
	actor      *model.User
	appID      core.ID
	input      *Input
}

func NewAddParty(
	repo party.Repository,
	applicants ApplicantReader,
	actor *model.User,
	appID core.ID,
	input *Input,
) *AddParty {
	return &AddParty{repo: repo, applicants: applicants, actor: actor, appID: appID, input: input}
}

func (uc *AddParty) Execute(ctx context.Context) (*party.Party, error) {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return nil, err
	}
	in := uc.input
	if err := core.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.MonthlyIncome.IsNegative() {
		return nil, core.Invalid("monthly_income", "must not be negative")
	}
	phone, ok := core.NormalizePhone(in.Phone)
	if !ok {
		return nil, core.Invalid("phone", "expected a 10 digit Indian mobile number")
	}
	orgID := uc.actor.OrgID
	now := time.Now().UTC()
	p := &party.Party{
		ID:            core.MustNewID(),
		OrgID:         orgID,
		ApplicationID: uc.appID,
		Kind:          in.Kind,
		FirstName:     applicant.TitleName(in.FirstName),
		LastName:      applicant.TitleName(in.LastName),
		Relationship:  strings.ToLower(strings.TrimSpace(in.Relationship)),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:         phone,
		PAN:           core.NormalizePAN(in.PAN),
		MonthlyIncome: in.MonthlyIncome.Round(2),
		Address:       in.Address.Normalize(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := uc.repo.WithTransaction(ctx, func(tx party.Repository) error {
		ref, err := lockOpen(ctx, tx, orgID, uc.appID)
		if err != nil {
			return err
		}
		existing, err := tx.List(ctx, orgID, uc.appID, p.Kind)
		if err != nil {
			return err
		}
		if len(existing) >= p.Kind.Limit() {
			return party.LimitExceeded(p.Kind)
		}
		if err := checkPAN(ctx, tx, uc.applicants, ref, orgID, p.PAN, ""); err != nil {
			return err
		}
		return tx.Create(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("adding party: %w", err)
	}
	logger.FromContext(ctx).Info("Party added",
		"org_id", orgID, "application_id", uc.appID, "party_id", p.ID, "kind", p.Kind)
	return p, nil
}
