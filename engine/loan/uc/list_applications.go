package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

type ListApplications struct {
	repo   loan.Repository
	orgID  core.ID
	filter loan.Filter
	page   core.Page
}

func NewListApplications(repo loan.Repository, orgID core.ID, filter loan.Filter, page core.Page) *ListApplications {
	return &ListApplications{repo: repo, orgID: orgID, filter: filter, page: page}
}

func (uc *ListApplications) Execute(ctx context.Context) ([]*loan.Application, error) {
	if uc.filter.Status != "" && !uc.filter.Status.Valid() {
		return nil, core.Invalid("status", fmt.Sprintf("unknown status %q", uc.filter.Status))
	}
	items, err := uc.repo.ListApplications(ctx, uc.orgID, uc.filter, uc.page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return items, nil
}
