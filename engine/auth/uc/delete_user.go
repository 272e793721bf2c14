package uc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

// DeleteUser use case for deleting a user
type DeleteUser struct {
	repo   Repository
	actor  *model.User
	userID core.ID
}

// NewDeleteUser creates a new delete user use case
func NewDeleteUser(repo Repository, actor *model.User, userID core.ID) *DeleteUser {
	return &DeleteUser{
		repo:   repo,
		actor:  actor,
		userID: userID,
	}
}

// Execute deletes a user
func (uc *DeleteUser) Execute(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if uc.userID == uc.actor.ID {
		return ErrSelfModification
	}
	var orgID core.ID
	err := uc.repo.WithTransaction(ctx, func(tx Repository) error {
		user, err := tx.GetUserByID(ctx, uc.actor.OrgID, uc.userID)
		if err != nil {
			return err
		}
		orgID = user.OrgID
		if user.Role == model.RoleOwner && user.Status == model.UserActive {
			if err := ensureAnotherOwner(ctx, tx, user.OrgID); err != nil {
				return err
			}
		}
		if err := tx.DeleteUser(ctx, user.OrgID, user.ID); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return err
			}
			return fmt.Errorf("failed to delete user %s: %w", uc.userID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("User deleted successfully", "org_id", orgID, "user_id", uc.userID)
	return nil
}
