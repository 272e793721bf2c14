package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

type DeleteApplicant struct {
	repo  applicant.Repository
	actor *model.User
	id    core.ID
}

func NewDeleteApplicant(repo applicant.Repository, actor *model.User, id core.ID) *DeleteApplicant {
	return &DeleteApplicant{repo: repo, actor: actor, id: id}
}

// Execute removes the applicant unless any loan application references it.
func (uc *DeleteApplicant) Execute(ctx context.Context) error {
	if err := uc.actor.Require(model.CapApplicantsWrite); err != nil {
		return err
	}
	orgID := uc.actor.OrgID
	if _, err := uc.repo.Get(ctx, orgID, uc.id); err != nil {
		return err
	}
	count, err := uc.repo.CountApplications(ctx, orgID, uc.id)
	if err != nil {
		return fmt.Errorf("counting applications: %w", err)
	}
	if count > 0 {
		return applicant.ErrHasApplications
	}
	if err := uc.repo.Delete(ctx, orgID, uc.id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Applicant deleted", "org_id", orgID, "applicant_id", uc.id)
	return nil
}
