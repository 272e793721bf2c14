package uc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/pkg/logger"
)

type UploadRequest struct {
	Type        document.Type `json:"type"         validate:"required"`
	FileName    string        `json:"file_name"    validate:"required,max=255"`
	ContentType string        `json:"content_type" validate:"required"`
	SizeBytes   int64         `json:"size_bytes"   validate:"required"`
	PartyID     *core.ID      `json:"party_id"`
}

// UploadTicket is a pending document and where to PUT its bytes.
type UploadTicket struct {
	Document  *document.Document `json:"document"`
	UploadURL string             `json:"upload_url"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// RequestUpload records a pending document and presigns a direct upload.
type RequestUpload struct {
	deps  Deps
	actor *model.User
	appID core.ID
	input *UploadRequest
}

func NewRequestUpload(deps Deps, actor *model.User, appID core.ID, input *UploadRequest) *RequestUpload {
	return &RequestUpload{deps: deps, actor: actor, appID: appID, input: input}
}

func (uc *RequestUpload) Execute(ctx context.Context) (*UploadTicket, error) {
	if err := uc.actor.Require(model.CapDocumentsWrite); err != nil {
		return nil, err
	}
	in := uc.input
	if err := core.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, core.Invalid("type", fmt.Sprintf("unknown document type %q", in.Type))
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if !uc.deps.Limits.allowed(contentType) {
		return nil, document.ErrTypeNotAllowed
	}
	if err := uc.deps.Limits.checkSize(in.SizeBytes); err != nil {
		return nil, err
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
		FileName:      strings.TrimSpace(in.FileName),
		ContentType:   contentType,
		SizeBytes:     in.SizeBytes,
		Status:        document.StatusPendingUpload,
		UploadedBy:    uc.actor.ID,
		CreatedAt:     now,
	}
	doc.ObjectKey = document.ObjectKey(orgID, uc.appID, doc.ID, doc.FileName)
	url, err := uc.deps.Storage.PresignPut(ctx, doc.ObjectKey, contentType)
	if err != nil {
		return nil, core.NewError(err, core.CodeUpstream, nil)
	}
	if err := uc.deps.Repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	logger.FromContext(ctx).Info("Document upload requested",
		"org_id", orgID, "application_id", uc.appID, "document_id", doc.ID, "type", doc.Type)
	return &UploadTicket{Document: doc, UploadURL: url, ExpiresAt: now.Add(uc.deps.Storage.TTL())}, nil
}
