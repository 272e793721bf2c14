package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/verification"
)

type ApplicationReader interface {
	GetApplication(ctx context.Context, orgID, id core.ID) (*loan.Application, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, orgID, id core.ID) (*model.User, error)
}

// StatusMover moves an application along the loan lifecycle and logs it.
type StatusMover interface {
	MoveApplication(ctx context.Context, orgID, id core.ID, to loan.Status, remarks string, changedBy core.ID) error
}

type Deps struct {
	Repo         verification.Repository
	Applications ApplicationReader
	Users        UserReader
	Mover        StatusMover
}

type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

func (f *Factory) Repository() verification.Repository { return f.deps.Repo }

func (f *Factory) CreateVerification(actor *model.User, appID core.ID, input *CreateInput) *CreateVerification {
	return NewCreateVerification(f.deps.Repo, f.deps.Applications, actor, appID, input)
}

func (f *Factory) AssignVerification(actor *model.User, id, agentID core.ID) *AssignVerification {
	return NewAssignVerification(f.deps, actor, id, agentID)
}

func (f *Factory) SubmitVerification(actor *model.User, id core.ID, input *SubmitInput) *SubmitVerification {
	return NewSubmitVerification(f.deps.Repo, actor, id, input)
}

func (f *Factory) ReviewVerification(actor *model.User, id core.ID, input *ReviewInput) *ReviewVerification {
	return NewReviewVerification(f.deps.Repo, actor, id, input)
}

func (f *Factory) ListVerifications(actor *model.User, appID core.ID) *ListVerifications {
	return NewListVerifications(f.deps.Repo, f.deps.Applications, actor, appID)
}

func (f *Factory) GetVerification(actor *model.User, id core.ID) *GetVerification {
	return NewGetVerification(f.deps.Repo, actor, id)
}
