package uc

import (
	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

type Factory struct {
	repo applicant.Repository
}

func NewFactory(repo applicant.Repository) *Factory {
	return &Factory{repo: repo}
}

func (f *Factory) Repository() applicant.Repository { return f.repo }

func (f *Factory) CreateApplicant(actor *model.User, input *CreateInput) *CreateApplicant {
	return NewCreateApplicant(f.repo, actor, input)
}

func (f *Factory) GetApplicant(orgID, id core.ID) *GetApplicant {
	return NewGetApplicant(f.repo, orgID, id)
}

func (f *Factory) ListApplicants(orgID core.ID, filter applicant.Filter, page core.Page) *ListApplicants {
	return NewListApplicants(f.repo, orgID, filter, page)
}

func (f *Factory) UpdateApplicant(actor *model.User, id core.ID, input *UpdateInput) *UpdateApplicant {
	return NewUpdateApplicant(f.repo, actor, id, input)
}

func (f *Factory) DeleteApplicant(actor *model.User, id core.ID) *DeleteApplicant {
	return NewDeleteApplicant(f.repo, actor, id)
}
