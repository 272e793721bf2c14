package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

var validate = validator.New()

// CreateUserInput represents the input for creating a user
type CreateUserInput struct {
	Email string     `json:"email" binding:"required,email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"  binding:"required"`
}

// CreateUser use case for creating a new user
type CreateUser struct {
	repo  Repository
	orgID core.ID
	input *CreateUserInput
}

// NewCreateUser creates a new create user use case
func NewCreateUser(repo Repository, orgID core.ID, input *CreateUserInput) *CreateUser {
	return &CreateUser{
		repo:  repo,
		orgID: orgID,
		input: input,
	}
}

// Execute creates a new user
func (uc *CreateUser) Execute(ctx context.Context) (*model.User, error) {
	log := logger.FromContext(ctx)
	email, err := normalizeEmail(uc.input.Email)
	if err != nil {
		return nil, err
	}
	if !uc.input.Role.Valid() {
		return nil, core.Invalid("role", fmt.Sprintf("unknown role %q", uc.input.Role))
	}
	log.Debug("Creating user", "org_id", uc.orgID, "email", email, "role", uc.input.Role)
	existing, err := uc.repo.GetUserByEmail(ctx, uc.orgID, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	now := time.Now().UTC()
	user := &model.User{
		ID:        core.MustNewID(),
		OrgID:     uc.orgID,
		Email:     email,
		Name:      strings.TrimSpace(uc.input.Name),
		Role:      uc.input.Role,
		Status:    model.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info("User created successfully", "org_id", uc.orgID, "user_id", user.ID, "role", user.Role)
	return user, nil
}

// normalizeEmail lowercases and validates an address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", core.Invalid("email", "a valid email address is required")
	}
	return email, nil
}
