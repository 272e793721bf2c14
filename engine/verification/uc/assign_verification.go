package uc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/verification"
	"github.com/lendflow/lendflow/pkg/logger"
)

type AssignVerification struct {
	deps    Deps
	actor   *model.User
	id      core.ID
	agentID core.ID
}

func NewAssignVerification(deps Deps, actor *model.User, id, agentID core.ID) *AssignVerification {
	return &AssignVerification{deps: deps, actor: actor, id: id, agentID: agentID}
}

func (uc *AssignVerification) Execute(ctx context.Context) (*verification.Verification, error) {
	if err := uc.actor.Require(model.CapVerificationAssign); err != nil {
		return nil, err
	}
	if uc.agentID.IsZero() {
		return nil, core.Invalid("agent_id", "is required")
	}
	orgID := uc.actor.OrgID
	v, err := uc.deps.Repo.Get(ctx, orgID, uc.id)
	if err != nil {
		return nil, err
	}
	if v.Status != verification.StatusPending && v.Status != verification.StatusAssigned {
		return nil, verification.WrongStatus(v.Status, verification.StatusPending, verification.StatusAssigned)
	}
	agent, err := uc.deps.Users.GetUserByID(ctx, orgID, uc.agentID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, verification.ErrInvalidAgent
	case err != nil:
		return nil, fmt.Errorf("loading agent: %w", err)
	}
	if !agent.Can(model.CapVerificationPerform) {
		return nil, verification.ErrInvalidAgent
	}
	if v.AssignedTo == nil {
		if err := uc.startVerification(ctx, v); err != nil {
			return nil, err
		}
	}
	agentID := agent.ID
	v.AssignedTo = &agentID
	v.Status = verification.StatusAssigned
	v.UpdatedAt = time.Now().UTC()
	if err := uc.deps.Repo.Update(ctx, v); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Verification assigned", "org_id", orgID, "verification_id", v.ID, "agent_id", agentID)
	return v, nil
}

// startVerification moves a submitted application into in_verification
// before the first assignment is saved, so a failed move leaves the
// verification pending and the call can be retried. Applications already
// past submitted are left alone.
func (uc *AssignVerification) startVerification(ctx context.Context, v *verification.Verification) error {
	if uc.deps.Mover == nil || uc.deps.Applications == nil {
		return nil
	}
	app, err := uc.deps.Applications.GetApplication(ctx, v.OrgID, v.ApplicationID)
	if err != nil {
		return fmt.Errorf("loading application: %w", err)
	}
	if app.Status != loan.StatusSubmitted {
		return nil
	}
	remarks := fmt.Sprintf("%s verification assigned", v.Type)
	err = uc.deps.Mover.MoveApplication(ctx, v.OrgID, app.ID, loan.StatusInVerification, remarks, uc.actor.ID)
	var coreErr *core.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &coreErr) && coreErr.Code == core.CodeInvalidTransition:
		logger.FromContext(ctx).Warn("Application moved concurrently", "application_id", app.ID, "error", err)
		return nil
	default:
		return fmt.Errorf("moving application to in_verification: %w", err)
	}
}
