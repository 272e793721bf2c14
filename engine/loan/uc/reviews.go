package uc

import (
	"context"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/pkg/logger"
)

type ReviewInput struct {
	Decision loan.Decision `json:"decision" validate:"required,oneof=APPROVE REJECT HOLD COMMENT"`
	Remarks  string        `json:"remarks"  validate:"required,max=2000"`
}

// CreateReview records a reviewer's recommendation. It never moves the
// application; CompleteConfirmation does that.
type CreateReview struct {
	repo  loan.Repository
	actor *model.User
	id    core.ID
	input *ReviewInput
}

func NewCreateReview(repo loan.Repository, actor *model.User, id core.ID, input *ReviewInput) *CreateReview {
	return &CreateReview{repo: repo, actor: actor, id: id, input: input}
}

func (uc *CreateReview) Execute(ctx context.Context) (*loan.Review, error) {
	if err := uc.actor.Require(model.CapApplicationsWrite); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	app, err := uc.repo.GetApplication(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	review := &loan.Review{
		ID:            core.MustNewID(),
		OrgID:         app.OrgID,
		ApplicationID: app.ID,
		ReviewerID:    uc.actor.ID,
		Decision:      uc.input.Decision,
		Remarks:       strings.TrimSpace(uc.input.Remarks),
		CreatedAt:     time.Now().UTC(),
	}
	if err := uc.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Review added", "application_id", app.ID, "decision", review.Decision)
	return review, nil
}

type ListReviews struct {
	repo  loan.Repository
	orgID core.ID
	id    core.ID
}

func NewListReviews(repo loan.Repository, orgID, id core.ID) *ListReviews {
	return &ListReviews{repo: repo, orgID: orgID, id: id}
}

func (uc *ListReviews) Execute(ctx context.Context) ([]*loan.Review, error) {
	if _, err := uc.repo.GetApplication(ctx, uc.orgID, uc.id); err != nil {
		return nil, err
	}
	return uc.repo.ListReviews(ctx, uc.orgID, uc.id)
}

type ListStatusLogs struct {
	repo  loan.Repository
	orgID core.ID
	id    core.ID
}

func NewListStatusLogs(repo loan.Repository, orgID, id core.ID) *ListStatusLogs {
	return &ListStatusLogs{repo: repo, orgID: orgID, id: id}
}

func (uc *ListStatusLogs) Execute(ctx context.Context) ([]*loan.StatusLog, error) {
	if _, err := uc.repo.GetApplication(ctx, uc.orgID, uc.id); err != nil {
		return nil, err
	}
	return uc.repo.ListStatusLogs(ctx, uc.orgID, uc.id)
}
