package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
)

// ListAPIKeys use case for listing all API keys for a user
type ListAPIKeys struct {
	repo Repository
	user *model.User
}

// NewListAPIKeys creates a new list API keys use case
func NewListAPIKeys(repo Repository, user *model.User) *ListAPIKeys {
	return &ListAPIKeys{repo: repo, user: user}
}

// Execute lists all API keys for a user
func (uc *ListAPIKeys) Execute(ctx context.Context) ([]*model.APIKey, error) {
	apiKeys, err := uc.repo.ListAPIKeysByUserID(ctx, uc.user.OrgID, uc.user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return apiKeys, nil
}
