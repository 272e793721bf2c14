package uc

import (
	"context"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/verification"
	"github.com/lendflow/lendflow/pkg/logger"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type ReviewInput struct {
	Decision Decision `json:"decision" validate:"required,oneof=approve reject"`
	Remarks  string   `json:"remarks"  validate:"max=2000"`
}

type ReviewVerification struct {
	repo  verification.Repository
	actor *model.User
	id    core.ID
	input *ReviewInput
}

func NewReviewVerification(
	repo verification.Repository,
	actor *model.User,
	id core.ID,
	input *ReviewInput,
) *ReviewVerification {
	return &ReviewVerification{repo: repo, actor: actor, id: id, input: input}
}

func (uc *ReviewVerification) Execute(ctx context.Context) (*verification.Verification, error) {
	if err := uc.actor.Require(model.CapVerificationReview); err != nil {
		return nil, err
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	remarks := strings.TrimSpace(uc.input.Remarks)
	if uc.input.Decision == DecisionReject && remarks == "" {
		return nil, core.Invalid("remarks", "required when rejecting")
	}
	v, err := uc.repo.Get(ctx, uc.actor.OrgID, uc.id)
	if err != nil {
		return nil, err
	}
	if v.Status != verification.StatusSubmitted {
		return nil, verification.WrongStatus(v.Status, verification.StatusSubmitted)
	}
	v.Status = verification.StatusApproved
	if uc.input.Decision == DecisionReject {
		v.Status = verification.StatusRejected
	}
	reviewer := uc.actor.ID
	v.ReviewedBy = &reviewer
	v.ReviewRemarks = remarks
	v.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Verification reviewed",
		"org_id", v.OrgID, "verification_id", v.ID, "status", v.Status)
	return v, nil
}
