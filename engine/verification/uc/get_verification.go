package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/verification"
)

// View is a verification as the caller may see it.
type View struct {
	*verification.Verification
	Visibility verification.FieldVisibility `json:"visibility"`
}

func viewFor(user *model.User, v *verification.Verification) *View {
	vis := verification.DefineVerificationFieldVisibility(user, v)
	return &View{Verification: vis.Redact(v), Visibility: vis}
}

type GetVerification struct {
	repo  verification.Repository
	actor *model.User
	id    core.ID
}

func NewGetVerification(repo verification.Repository, actor *model.User, id core.ID) *GetVerification {
	return &GetVerification{repo: repo, actor: actor, id: id}
}

func (uc *GetVerification) Execute(ctx context.Context) (*View, error) {
	v, err := uc.repo.Get(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	return viewFor(uc.actor, v), nil
}

type ListVerifications struct {
	repo  verification.Repository
	apps  ApplicationReader
	actor *model.User
	appID core.ID
}

func NewListVerifications(
	repo verification.Repository,
	apps ApplicationReader,
	actor *model.User,
	appID core.ID,
) *ListVerifications {
	return &ListVerifications{repo: repo, apps: apps, actor: actor, appID: appID}
}

func (uc *ListVerifications) Execute(ctx context.Context) ([]*View, error) {
	orgID := uc.actor.OrgID
	if _, err := uc.apps.GetApplication(ctx, orgID, uc.appID); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByApplication(ctx, orgID, uc.appID)
	if err != nil {
		return nil, err
	}
	out := make([]*View, 0, len(list))
	for _, v := range list {
		out = append(out, viewFor(uc.actor, v))
	}
	return out, nil
}
