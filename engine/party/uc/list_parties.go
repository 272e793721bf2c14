package uc

import (
	"context"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/party"
)

type ListParties struct {
	repo  party.Repository
	orgID core.ID
	appID core.ID
	kind  party.Kind
}

func NewListParties(repo party.Repository, orgID, appID core.ID, kind party.Kind) *ListParties {
	return &ListParties{repo: repo, orgID: orgID, appID: appID, kind: kind}
}

func (uc *ListParties) Execute(ctx context.Context) ([]*party.Party, error) {
	if uc.kind != "" && !uc.kind.Valid() {
		return nil, core.Invalid("kind", fmt.Sprintf("unknown kind %q", uc.kind))
	}
	if _, err := uc.repo.GetApplication(ctx, uc.orgID, uc.appID); err != nil {
		return nil, err
	}
	return uc.repo.List(ctx, uc.orgID, uc.appID, uc.kind)
}
