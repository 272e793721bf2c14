package uc

import (
	"context"
	"io"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/infra/objectstore"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/party"
)

// Storage is the object store the documents live in.
type Storage interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key, fileName string) (string, error)
	Head(ctx context.Context, key string) (*objectstore.ObjectInfo, error)
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	TTL() time.Duration
}

type ApplicationReader interface {
	GetApplication(ctx context.Context, orgID, id core.ID) (*loan.Application, error)
}

type PartyReader interface {
	Get(ctx context.Context, orgID, id core.ID) (*party.Party, error)
}

// Limits bound what may be uploaded.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

type Deps struct {
	Repo         document.Repository
	Storage      Storage
	Applications ApplicationReader
	Parties      PartyReader
	Limits       Limits
}

type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

func (f *Factory) Repository() document.Repository { return f.deps.Repo }

func (f *Factory) RequestUpload(actor *model.User, appID core.ID, input *UploadRequest) *RequestUpload {
	return NewRequestUpload(f.deps, actor, appID, input)
}

func (f *Factory) ConfirmUpload(actor *model.User, id core.ID) *ConfirmUpload {
	return NewConfirmUpload(f.deps, actor, id)
}

func (f *Factory) Upload(actor *model.User, appID core.ID, input *FileInput) *Upload {
	return NewUpload(f.deps, actor, appID, input)
}

func (f *Factory) GetDownloadURL(orgID, id core.ID) *GetDownloadURL {
	return NewGetDownloadURL(f.deps, orgID, id)
}

func (f *Factory) ListDocuments(orgID, appID core.ID) *ListDocuments {
	return NewListDocuments(f.deps, orgID, appID)
}

func (f *Factory) DeleteDocument(actor *model.User, id core.ID) *DeleteDocument {
	return NewDeleteDocument(f.deps, actor, id)
}
