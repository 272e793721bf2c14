package uc

import (
	"context"
	"errors"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/infra/objectstore"
	"github.com/lendflow/lendflow/pkg/logger"
)

// ConfirmUpload checks the object landed and marks the document uploaded.
type ConfirmUpload struct {
	deps  Deps
	actor *model.User
	id    core.ID
}

func NewConfirmUpload(deps Deps, actor *model.User, id core.ID) *ConfirmUpload {
	return &ConfirmUpload{deps: deps, actor: actor, id: id}
}

func (uc *ConfirmUpload) Execute(ctx context.Context) (*document.Document, error) {
	if err := uc.actor.Require(model.CapDocumentsWrite); err != nil {
		return nil, err
	}
	doc, err := uc.deps.Repo.Get(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	if doc.Status == document.StatusUploaded {
		return nil, document.ErrAlreadyUploaded
	}
	info, err := uc.deps.Storage.Head(ctx, doc.ObjectKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return nil, document.ErrObjectMissing
		}
		return nil, core.NewError(err, core.CodeUpstream, nil)
	}
	if uc.deps.Limits.MaxBytes > 0 && info.Size > uc.deps.Limits.MaxBytes {
		if err := uc.deps.Storage.Delete(ctx, doc.ObjectKey); err != nil {
			logger.FromContext(ctx).Warn("Failed to remove oversized object", "key", doc.ObjectKey, "error", err)
		}
		return nil, document.ErrTooLarge
	}
	now := time.Now().UTC()
	doc.SizeBytes = info.Size
	if info.ContentType != "" {
		doc.ContentType = info.ContentType
	}
	doc.Status = document.StatusUploaded
	doc.UploadedAt = &now
	if err := uc.deps.Repo.MarkUploaded(ctx, doc); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Document uploaded", "document_id", doc.ID, "size_bytes", doc.SizeBytes)
	return doc, nil
}
