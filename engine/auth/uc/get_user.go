package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

// GetUser use case for retrieving a user by ID
type GetUser struct {
	repo   Repository
	orgID  core.ID
	userID core.ID
}

// NewGetUser creates a new get user use case
func NewGetUser(repo Repository, orgID, userID core.ID) *GetUser {
	return &GetUser{repo: repo, orgID: orgID, userID: userID}
}

// Execute retrieves a user by ID
func (uc *GetUser) Execute(ctx context.Context) (*model.User, error) {
	return uc.repo.GetUserByID(ctx, uc.orgID, uc.userID)
}
