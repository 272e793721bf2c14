package uc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/pkg/logger"
)

// FileInput is a file streamed through the API instead of a presigned URL.
type FileInput struct {
	Type     document.Type
	FileName string
	PartyID  *core.ID
	Body     io.Reader
}

// Upload sniffs the content, enforces the allow-list and size cap, stores
// the object and records the document as uploaded.
type Upload struct {
	deps  Deps
	actor *model.User
	appID core.ID
	input *FileInput
}

func NewUpload(deps Deps, actor *model.User, appID core.ID, input *FileInput) *Upload {
	return &Upload{deps: deps, actor: actor, appID: appID, input: input}
}

func (uc *Upload) Execute(ctx context.Context) (*document.Document, error) {
	if err := uc.actor.Require(model.CapDocumentsWrite); err != nil {
		return nil, err
	}
	in := uc.input
	if !in.Type.Valid() {
		return nil, core.Invalid("type", fmt.Sprintf("unknown document type %q", in.Type))
	}
	if in.FileName == "" {
		return nil, core.Invalid("file", "is required")
	}
	data, err := uc.read(in.Body)
	if err != nil {
		return nil, err
	}
	mt := mimetype.Detect(data)
	if !uc.deps.Limits.allowedDetected(mt) {
		return nil, core.NewError(
			fmt.Errorf("content type %s is not allowed", mt.String()),
			core.CodeInvalidInput,
			map[string]any{"field": "file", "detected": mt.String()},
		)
	}
	orgID := uc.actor.OrgID
	if err := checkTarget(ctx, uc.deps, orgID, uc.appID, in.PartyID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := &document.Document{
		ID:            core.MustNewID(),
		OrgID:         orgID,
		ApplicationID: uc.appID,
		PartyID:       in.PartyID,
		Type:          in.Type,
		FileName:      in.FileName,
		ContentType:   mt.String(),
		SizeBytes:     int64(len(data)),
		Status:        document.StatusUploaded,
		UploadedBy:    uc.actor.ID,
		CreatedAt:     now,
		UploadedAt:    &now,
	}
	doc.ObjectKey = document.ObjectKey(orgID, uc.appID, doc.ID, doc.FileName)
	if err := uc.deps.Storage.Put(ctx, doc.ObjectKey, doc.ContentType, bytes.NewReader(data), doc.SizeBytes); err != nil {
		return nil, core.NewError(err, core.CodeUpstream, nil)
	}
	if err := uc.deps.Repo.Create(ctx, doc); err != nil {
		if delErr := uc.deps.Storage.Delete(ctx, doc.ObjectKey); delErr != nil {
			logger.FromContext(ctx).Warn("Failed to remove orphaned object", "key", doc.ObjectKey, "error", delErr)
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}
	logger.FromContext(ctx).Info("Document uploaded",
		"org_id", orgID, "application_id", uc.appID, "document_id", doc.ID, "content_type", doc.ContentType)
	return doc, nil
}

// read buffers the body, failing once it passes the size cap.
func (uc *Upload) read(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, core.Invalid("file", "is required")
	}
	limit := uc.deps.Limits.MaxBytes
	if limit > 0 {
		body = io.LimitReader(body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, document.ErrTooLarge
	}
	if len(data) == 0 {
		return nil, core.Invalid("file", "is empty")
	}
	return data, nil
}
