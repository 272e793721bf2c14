package uc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/verification"
	"github.com/lendflow/lendflow/pkg/logger"
)

type CreateInput struct {
	Type    verification.Type `json:"type"    validate:"required,oneof=residence business property vehicle"`
	Address string            `json:"address" validate:"omitempty,max=500"`
}

type CreateVerification struct {
	repo  verification.Repository
	apps  ApplicationReader
	actor *model.User
	appID core.ID
	input *CreateInput
}

func NewCreateVerification(
	repo verification.Repository,
	apps ApplicationReader,
	actor *model.User,
	appID core.ID,
	input *CreateInput,
) *CreateVerification {
	return &CreateVerification{repo: repo, apps: apps, actor: actor, appID: appID, input: input}
}

func (uc *CreateVerification) Execute(ctx context.Context) (*verification.Verification, error) {
	if err := uc.actor.Require(model.CapVerificationAssign); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	orgID := uc.actor.OrgID
	app, err := uc.apps.GetApplication(ctx, orgID, uc.appID)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		return nil, loan.ErrNotEditable
	}
	existing, err := uc.repo.FindActive(ctx, orgID, app.ID, uc.input.Type)
	switch {
	case err == nil && existing != nil:
		return nil, verification.ErrActiveExists
	case err != nil && !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("checking active verification: %w", err)
	}
	now := time.Now().UTC()
	v := &verification.Verification{
		ID:            core.MustNewID(),
		OrgID:         orgID,
		ApplicationID: app.ID,
		Type:          uc.input.Type,
		Status:        verification.StatusPending,
		Address:       strings.TrimSpace(uc.input.Address),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Verification created",
		"org_id", orgID, "application_id", app.ID, "verification_id", v.ID, "type", v.Type)
	return v, nil
}
