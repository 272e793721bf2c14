package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/party"
	"github.com/lendflow/lendflow/pkg/logger"
)

type RemoveParty struct {
	repo  party.Repository
	actor *model.User
	id    core.ID
}

func NewRemoveParty(repo party.Repository, actor *model.User, id core.ID) *RemoveParty {
	return &RemoveParty{repo: repo, actor: actor, id: id}
}

func (uc *RemoveParty) Execute(ctx context.Context) error {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return err
	}
	orgID := uc.actor.OrgID
	err := uc.repo.WithTransaction(ctx, func(tx party.Repository) error {
		p, err := tx.Get(ctx, orgID, uc.id)
		if err != nil {
			return err
		}
		if _, err := lockOpen(ctx, tx, orgID, p.ApplicationID); err != nil {
			return err
		}
		return tx.Delete(ctx, orgID, p.ID)
	})
	if err != nil {
		return fmt.Errorf("removing party: %w", err)
	}
	logger.FromContext(ctx).Info("Party removed", "org_id", orgID, "party_id", uc.id)
	return nil
}
