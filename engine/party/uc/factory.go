package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/party"
)

type ApplicantReader interface {
	Get(ctx context.Context, orgID, id core.ID) (*applicant.Applicant, error)
}

type Factory struct {
	repo       party.Repository
	applicants ApplicantReader
}

func NewFactory(repo party.Repository, applicants ApplicantReader) *Factory {
	return &Factory{repo: repo, applicants: applicants}
}

func (f *Factory) Repository() party.Repository { return f.repo }

func (f *Factory) AddParty(actor *model.User, appID core.ID, input *Input) *AddParty {
	return NewAddParty(f.repo, f.applicants, actor, appID, input)
}

func (f *Factory) ListParties(orgID, appID core.ID, kind party.Kind) *ListParties {
	return NewListParties(f.repo, orgID, appID, kind)
}

func (f *Factory) UpdateParty(actor *model.User, id core.ID, input *UpdateInput) *UpdateParty {
	return NewUpdateParty(f.repo, f.applicants, actor, id, input)
}

func (f *Factory) RemoveParty(actor *model.User, id core.ID) *RemoveParty {
	return NewRemoveParty(f.repo, actor, id)
}
