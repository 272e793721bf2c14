package uc

import (
	"context"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
)

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GetDownloadURL struct {
	deps  Deps
	orgID core.ID
	id    core.ID
}

func NewGetDownloadURL(deps Deps, orgID, id core.ID) *GetDownloadURL {
	return &GetDownloadURL{deps: deps, orgID: orgID, id: id}
}

func (uc *GetDownloadURL) Execute(ctx context.Context) (*DownloadLink, error) {
	doc, err := uc.deps.Repo.Get(ctx, uc.orgID, uc.id)
	if err != nil {
		return nil, err
	}
	if doc.Status != document.StatusUploaded {
		return nil, document.ErrNotUploaded
	}
	url, err := uc.deps.Storage.PresignGet(ctx, doc.ObjectKey, document.SanitizeFileName(doc.FileName))
	if err != nil {
		return nil, core.NewError(err, core.CodeUpstream, nil)
	}
	return &DownloadLink{URL: url, ExpiresAt: time.Now().UTC().Add(uc.deps.Storage.TTL())}, nil
}

type ListDocuments struct {
	deps  Deps
	orgID core.ID
	appID core.ID
}

func NewListDocuments(deps Deps, orgID, appID core.ID) *ListDocuments {
	return &ListDocuments{deps: deps, orgID: orgID, appID: appID}
}

func (uc *ListDocuments) Execute(ctx context.Context) ([]*document.Document, error) {
	if _, err := uc.deps.Applications.GetApplication(ctx, uc.orgID, uc.appID); err != nil {
		return nil, err
	}
	return uc.deps.Repo.ListByApplication(ctx, uc.orgID, uc.appID)
}
