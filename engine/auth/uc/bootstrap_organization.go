package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

type BootstrapInput struct {
	OrgName    string
	OwnerEmail string
	OwnerName  string
}

// BootstrapResult carries the plaintext key, which is never stored.
type BootstrapResult struct {
	Organization *model.Organization
	Owner        *model.User
	APIKey       string
}

// BootstrapOrganization creates the first organization and its owner. It is
// run from the CLI, bypassing the HTTP layer.
type BootstrapOrganization struct {
	repo      Repository
	keyPrefix string
	input     *BootstrapInput
}

func NewBootstrapOrganization(repo Repository, keyPrefix string, input *BootstrapInput) *BootstrapOrganization {
	return &BootstrapOrganization{repo: repo, keyPrefix: keyPrefix, input: input}
}

func (uc *BootstrapOrganization) Execute(ctx context.Context) (*BootstrapResult, error) {
	name := strings.TrimSpace(uc.input.OrgName)
	if name == "" {
		return nil, core.Invalid("org", "organization name is required")
	}
	email, err := normalizeEmail(uc.input.OwnerEmail)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	org := &model.Organization{
		ID:        core.MustNewID(),
		Name:      name,
		Slug:      slug.Make(name),
		Status:    model.OrgActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &model.User{
		ID:        core.MustNewID(),
		OrgID:     org.ID,
		Email:     email,
		Name:      strings.TrimSpace(uc.input.OwnerName),
		Role:      model.RoleOwner,
		Status:    model.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateOrganizationIfNone(ctx, org, owner); err != nil {
		if errors.Is(err, ErrAlreadyBootstrapped) {
			return nil, err
		}
		return nil, fmt.Errorf("creating organization: %w", err)
	}
	key, _, err := NewGenerateAPIKey(uc.repo, owner, uc.keyPrefix).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating API key: %w", err)
	}
	logger.FromContext(ctx).Info("Organization bootstrapped", "org_id", org.ID, "slug", org.Slug, "owner_id", owner.ID)
	return &BootstrapResult{Organization: org, Owner: owner, APIKey: key}, nil
}
