package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

type GetOrganization struct {
	repo  Repository
	orgID core.ID
}

func NewGetOrganization(repo Repository, orgID core.ID) *GetOrganization {
	return &GetOrganization{repo: repo, orgID: orgID}
}

func (uc *GetOrganization) Execute(ctx context.Context) (*model.Organization, error) {
	return uc.repo.GetOrganization(ctx, uc.orgID)
}
