package uc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

// UpdateUserInput represents the input for updating a user
type UpdateUserInput struct {
	Name   *string           `json:"name,omitempty"`
	Role   *model.Role       `json:"role,omitempty"`
	Status *model.UserStatus `json:"status,omitempty"`
}

// UpdateUser use case for updating a user
type UpdateUser struct {
	repo   Repository
	actor  *model.User
	userID core.ID
	input  *UpdateUserInput
}

// NewUpdateUser creates a new update user use case
func NewUpdateUser(repo Repository, actor *model.User, userID core.ID, input *UpdateUserInput) *UpdateUser {
	return &UpdateUser{
		repo:   repo,
		actor:  actor,
		userID: userID,
		input:  input,
	}
}

// Execute updates a user. Owner checks and the write share one transaction
// so concurrent demotions cannot leave the organization without an owner.
func (uc *UpdateUser) Execute(ctx context.Context) (*model.User, error) {
	var user *model.User
	err := uc.repo.WithTransaction(ctx, func(tx Repository) error {
		var err error
		user, err = uc.apply(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("User updated", "org_id", user.OrgID, "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (uc *UpdateUser) apply(ctx context.Context, tx Repository) (*model.User, error) {
	user, err := tx.GetUserByID(ctx, uc.actor.OrgID, uc.userID)
	if err != nil {
		return nil, err
	}
	roleChange := uc.input.Role != nil && *uc.input.Role != user.Role
	statusChange := uc.input.Status != nil && *uc.input.Status != user.Status
	if (roleChange || statusChange) && user.ID == uc.actor.ID {
		return nil, ErrSelfModification
	}
	if roleChange && !uc.input.Role.Valid() {
		return nil, core.Invalid("role", fmt.Sprintf("unknown role %q", *uc.input.Role))
	}
	if statusChange && !uc.input.Status.Valid() {
		return nil, core.Invalid("status", fmt.Sprintf("unknown status %q", *uc.input.Status))
	}
	losesOwner := user.Role == model.RoleOwner && user.Status == model.UserActive &&
		(roleChange || (statusChange && *uc.input.Status != model.UserActive))
	if losesOwner {
		if err := ensureAnotherOwner(ctx, tx, user.OrgID); err != nil {
			return nil, err
		}
	}
	if uc.input.Name != nil {
		user.Name = strings.TrimSpace(*uc.input.Name)
	}
	if roleChange {
		user.Role = *uc.input.Role
	}
	if statusChange {
		user.Status = *uc.input.Status
	}
	user.UpdatedAt = time.Now().UTC()
	if err := tx.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ensureAnotherOwner must run inside the caller's transaction.
func ensureAnotherOwner(ctx context.Context, tx Repository, orgID core.ID) error {
	owners, err := tx.CountActiveOwnersForUpdate(ctx, orgID)
	if err != nil {
		return fmt.Errorf("counting owners: %w", err)
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}
