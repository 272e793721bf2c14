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

// UpdateInput changes a party in place. Kind is fixed once added.
type UpdateInput struct {
	FirstName     *string            `json:"first_name"     validate:"omitempty,min=1,max=100"`
	LastName      *string            `json:"last_name"      validate:"omitempty,max=100"`
	Relationship  *string            `json:"relationship"   validate:"omitempty,max=50"`
	Email         *string            `json:"email"          validate:"omitempty,email"`
	Phone         *string            `json:"phone"          validate:"omitempty,phone_in"`
	PAN           *string            `json:"pan"            validate:"omitempty,pan"`
	MonthlyIncome *decimal.Decimal   `json:"monthly_income"`
	Address       *applicant.Address `json:"address"`
}

type UpdateParty struct {
	repo       party.Repository
	applicants ApplicantReader
	actor      *model.User
	id         core.ID
	input      *UpdateInput
}

func NewUpdateParty(
	repo party.Repository,
	applicants ApplicantReader,
	actor *model.User,
	id core.ID,
	input *UpdateInput,
) *UpdateParty {
	return &UpdateParty{repo: repo, applicants: applicants, actor: actor, id: id, input: input}
}

func (uc *UpdateParty) Execute(ctx context.Context) (*party.Party, error) {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	orgID := uc.actor.OrgID
	var p *party.Party
	err := uc.repo.WithTransaction(ctx, func(tx party.Repository) error {
		var err error
		if p, err = tx.Get(ctx, orgID, uc.id); err != nil {
			return err
		}
		ref, err := lockOpen(ctx, tx, orgID, p.ApplicationID)
		if err != nil {
			return err
		}
		panChanged, err := uc.apply(p)
		if err != nil {
			return err
		}
		if panChanged {
			if err := checkPAN(ctx, tx, uc.applicants, ref, orgID, p.PAN, p.ID); err != nil {
				return err
			}
		}
		p.UpdatedAt = time.Now().UTC()
		return tx.Update(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("updating party: %w", err)
	}
	logger.FromContext(ctx).Info("Party updated", "org_id", orgID, "party_id", p.ID)
	return p, nil
}

func (uc *UpdateParty) apply(p *party.Party) (bool, error) {
	in := uc.input
	if in.FirstName != nil {
		p.FirstName = applicant.TitleName(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = applicant.TitleName(*in.LastName)
	}
	if in.Relationship != nil {
		p.Relationship = strings.ToLower(strings.TrimSpace(*in.Relationship))
	}
	if in.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		phone, ok := core.NormalizePhone(*in.Phone)
		if !ok {
			return false, core.Invalid("phone", "expected a 10 digit Indian mobile number")
		}
		p.Phone = phone
	}
	if in.MonthlyIncome != nil {
		if in.MonthlyIncome.IsNegative() {
			return false, core.Invalid("monthly_income", "must not be negative")
		}
		p.MonthlyIncome = in.MonthlyIncome.Round(2)
	}
	if in.Address != nil {
		p.Address = in.Address.Normalize()
	}
	if in.PAN != nil {
		pan := core.NormalizePAN(*in.PAN)
		changed := pan != p.PAN
		p.PAN = pan
		return changed, nil
	}
	return false, nil
}
