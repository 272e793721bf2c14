package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/party"
	"github.com/lendflow/lendflow/engine/verification"
)

type ApplicantReader interface {
	Get(ctx context.Context, orgID, id core.ID) (*applicant.Applicant, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, orgID, id core.ID) (*model.User, error)
}

// Quota caps how many applications an organization may open per month.
type Quota interface {
	CheckApplicationQuota(ctx context.Context, orgID core.ID) error
}

type PartyLister interface {
	List(ctx context.Context, orgID, appID core.ID, kind party.Kind) ([]*party.Party, error)
}

type DocumentLister interface {
	ListByApplication(ctx context.Context, orgID, appID core.ID) ([]*document.Document, error)
}

type VerificationLister interface {
	ListByApplication(ctx context.Context, orgID, appID core.ID) ([]*verification.Verification, error)
}

// Deps wires the loan use cases. Quota, Metrics and the dossier listers are optional.
type Deps struct {
	Repo          loan.Repository
	Applicants    ApplicantReader
	Users         UserReader
	Parties       PartyLister
	Documents     DocumentLister
	Verifications VerificationLister
	Quota         Quota
	Metrics       *monitoring.DomainMetrics
}

type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

func (f *Factory) Repository() loan.Repository { return f.deps.Repo }

func (f *Factory) CreateApplication(actor *model.User, input *CreateInput) *CreateApplication {
	return NewCreateApplication(f.deps.Repo, f.deps.Applicants, f.deps.Quota, actor, input)
}

func (f *Factory) GetApplication(orgID, id core.ID) *GetApplication {
	return NewGetApplication(f.deps.Repo, orgID, id)
}

func (f *Factory) ListApplications(orgID core.ID, filter loan.Filter, page core.Page) *ListApplications {
	return NewListApplications(f.deps.Repo, orgID, filter, page)
}

func (f *Factory) UpdateApplication(actor *model.User, id core.ID, input *UpdateInput) *UpdateApplication {
	return NewUpdateApplication(f.deps.Repo, actor, id, input)
}

func (f *Factory) AssignApplication(actor *model.User, id, assigneeID core.ID) *AssignApplication {
	return NewAssignApplication(f.deps.Repo, f.deps.Users, actor, id, assigneeID)
}

func (f *Factory) UpdateStatus(actor *model.User, id core.ID, input *StatusInput) *UpdateStatus {
	return NewUpdateStatus(f.deps.Repo, f.deps.Metrics, actor, id, input)
}

// MoveStatus transitions without a capability check, for moves triggered
// by other workflows.
func (f *Factory) MoveStatus(orgID, id core.ID, to loan.Status, remarks string, changedBy core.ID) *MoveStatus {
	return NewMoveStatus(f.deps.Repo, f.deps.Metrics, orgID, id, to, remarks, changedBy)
}

func (f *Factory) CompleteConfirmation(actor *model.User, id core.ID, input *ConfirmationInput) *CompleteConfirmation {
	return NewCompleteConfirmation(f.deps.Repo, f.deps.Metrics, actor, id, input)
}

func (f *Factory) GetConfirmation(actor *model.User, id core.ID) *GetConfirmation {
	return NewGetConfirmation(f.deps.Repo, actor, id)
}

func (f *Factory) CreateReview(actor *model.User, id core.ID, input *ReviewInput) *CreateReview {
	return NewCreateReview(f.deps.Repo, actor, id, input)
}

func (f *Factory) ListReviews(orgID, id core.ID) *ListReviews {
	return NewListReviews(f.deps.Repo, orgID, id)
}

func (f *Factory) ListStatusLogs(orgID, id core.ID) *ListStatusLogs {
	return NewListStatusLogs(f.deps.Repo, orgID, id)
}

func (f *Factory) GetDossier(actor *model.User, id core.ID) *GetDossier {
	return NewGetDossier(f.deps, actor, id)
}

// MoveApplication runs MoveStatus for callers outside this package.
func (f *Factory) MoveApplication(ctx context.Context, orgID, id core.ID, to loan.Status, remarks string, changedBy core.ID) error {
	_, err := f.MoveStatus(orgID, id, to, remarks, changedBy).Execute(ctx)
	return err
}
