package uc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

// RevokeAPIKey use case for revoking (deleting) an API key
type RevokeAPIKey struct {
	repo  Repository
	actor *model.User
	keyID core.ID
}

// NewRevokeAPIKey creates a new revoke API key use case
func NewRevokeAPIKey(repo Repository, actor *model.User, keyID core.ID) *RevokeAPIKey {
	return &RevokeAPIKey{repo: repo, actor: actor, keyID: keyID}
}

// Execute revokes an API key owned by the actor, or any key for admins.
func (uc *RevokeAPIKey) Execute(ctx context.Context) error {
	log := logger.FromContext(ctx)
	apiKey, err := uc.repo.GetAPIKeyByID(ctx, uc.actor.OrgID, uc.keyID)
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			return err
		}
		return fmt.Errorf("failed to retrieve API key %s: %w", uc.keyID, err)
	}
	if apiKey.UserID != uc.actor.ID && !uc.actor.Can(model.CapUsersManage) {
		return core.NewError(
			fmt.Errorf("access denied to API key %s", uc.keyID),
			core.CodeForbidden,
			map[string]any{"key_id": uc.keyID},
		)
	}
	if err := uc.repo.DeleteAPIKey(ctx, uc.actor.OrgID, uc.keyID); err != nil {
		return fmt.Errorf("failed to revoke API key %s: %w", uc.keyID, err)
	}
	log.Info("API key revoked successfully", "key_id", uc.keyID, "user_id", uc.actor.ID)
	return nil
}
