package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
)

type GetApplicant struct {
	repo  applicant.Repository
	orgID core.ID
	id    core.ID
}

func NewGetApplicant(repo applicant.Repository, orgID, id core.ID) *GetApplicant {
	return &GetApplicant{repo: repo, orgID: orgID, id: id}
}

func (uc *GetApplicant) Execute(ctx context.Context) (*applicant.Applicant, error) {
	return uc.repo.Get(ctx, uc.orgID, uc.id)
}
