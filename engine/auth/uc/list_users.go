package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

type ListUsers struct {
	repo  Repository
	orgID core.ID
	page  core.Page
}

func NewListUsers(repo Repository, orgID core.ID, page core.Page) *ListUsers {
	return &ListUsers{repo: repo, orgID: orgID, page: page.Normalize()}
}

func (uc *ListUsers) Execute(ctx context.Context) ([]*model.User, error) {
	users, err := uc.repo.ListUsers(ctx, uc.orgID, uc.page)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
