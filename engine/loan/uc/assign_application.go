package uc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/pkg/logger"
)

type AssignApplication struct {
	repo       loan.Repository
	users      UserReader
	actor      *model.User
	id         core.ID
	assigneeID core.ID
}

func NewAssignApplication(
	repo loan.Repository,
	users UserReader,
	actor *model.User,
	id, assigneeID core.ID,
) *AssignApplication {
	return &AssignApplication{repo: repo, users: users, actor: actor, id: id, assigneeID: assigneeID}
}

// Execute hands the application to a credit officer or manager of the same organization.
func (uc *AssignApplication) Execute(ctx context.Context) (*loan.Application, error) {
	if err := uc.actor.Require(model.CapApplicationsAssign); err != nil {
		return nil, err
	}
	orgID := uc.actor.OrgID
	assignee, err := uc.users.GetUserByID(ctx, orgID, uc.assigneeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, loan.ErrInvalidAssignee
		}
		return nil, fmt.Errorf("loading assignee: %w", err)
	}
	if !assignee.IsActive() || (assignee.Role != model.RoleCreditOfficer && assignee.Role != model.RoleManager) {
		return nil, loan.ErrInvalidAssignee
	}
	var app *loan.Application
	err = uc.repo.WithTransaction(ctx, func(tx loan.Repository) error {
		app, err = tx.GetApplicationForUpdate(ctx, orgID, uc.id)
		if err != nil {
			return err
		}
		if app.Status.Terminal() {
			return loan.ErrNotEditable
		}
		app.AssignedTo = &assignee.ID
		app.UpdatedAt = time.Now().UTC()
		return tx.UpdateApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Loan application assigned",
		"org_id", orgID, "application_id", app.ID, "assigned_to", assignee.ID)
	return app, nil
}
