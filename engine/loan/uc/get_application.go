package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

type GetApplication struct {
	repo  loan.Repository
	orgID core.ID
	id    core.ID
}

func NewGetApplication(repo loan.Repository, orgID, id core.ID) *GetApplication {
	return &GetApplication{repo: repo, orgID: orgID, id: id}
}

func (uc *GetApplication) Execute(ctx context.Context) (*loan.Application, error) {
	return uc.repo.GetApplication(ctx, uc.orgID, uc.id)
}
