package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

// DeleteDocument removes the object first so a failed row delete never
// leaves a row pointing at nothing.
type DeleteDocument struct {
	deps  Deps
	actor *model.User
	id    core.ID
}

func NewDeleteDocument(deps Deps, actor *model.User, id core.ID) *DeleteDocument {
	return &DeleteDocument{deps: deps, actor: actor, id: id}
}

func (uc *DeleteDocument) Execute(ctx context.Context) error {
	if err := uc.actor.Require(model.CapDocumentsDelete); err != nil {
		return err
	}
	doc, err := uc.deps.Repo.Get(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return err
	}
	if err := uc.deps.Storage.Delete(ctx, doc.ObjectKey); err != nil {
		return core.NewError(fmt.Errorf("deleting object: %w", err), core.CodeUpstream, nil)
	}
	if err := uc.deps.Repo.Delete(ctx, doc.OrgID, doc.ID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Document deleted", "org_id", doc.OrgID, "document_id", doc.ID)
	return nil
}
