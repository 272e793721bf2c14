package uc

import (
	"context"
	"fmt"
	"strings"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
)

type ListApplicants struct {
	repo   applicant.Repository
	orgID  core.ID
	filter applicant.Filter
	page   core.Page
}

func NewListApplicants(repo applicant.Repository, orgID core.ID, filter applicant.Filter, page core.Page) *ListApplicants {
	return &ListApplicants{repo: repo, orgID: orgID, filter: filter, page: page}
}

func (uc *ListApplicants) Execute(ctx context.Context) ([]*applicant.Applicant, error) {
	filter := applicant.Filter{Search: strings.TrimSpace(uc.filter.Search)}
	items, err := uc.repo.List(ctx, uc.orgID, filter, uc.page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return items, nil
}
