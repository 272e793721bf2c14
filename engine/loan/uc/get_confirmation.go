package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

type ConfirmationView struct {
	Confirmation *loan.Confirmation          `json:"confirmation"`
	Visibility   loan.ConfirmationVisibility `json:"visibility"`
}

// GetConfirmation returns the confirmation redacted for the caller.
type GetConfirmation struct {
	repo  loan.Repository
	actor *model.User
	id    core.ID
}

func NewGetConfirmation(repo loan.Repository, actor *model.User, id core.ID) *GetConfirmation {
	return &GetConfirmation{repo: repo, actor: actor, id: id}
}

func (uc *GetConfirmation) Execute(ctx context.Context) (*ConfirmationView, error) {
	conf, err := uc.repo.GetConfirmation(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	vis := loan.DefineLoanConfirmationFieldVisibility(uc.actor)
	return &ConfirmationView{Confirmation: vis.Redact(conf), Visibility: vis}, nil
}
