package uc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/verification"
	"github.com/lendflow/lendflow/pkg/logger"
)

type SubmitInput struct {
	Details   json.RawMessage     `json:"details"    validate:"required"`
	Result    verification.Result `json:"result"     validate:"required,oneof=positive negative refer"`
	Remarks   string              `json:"remarks"    validate:"max=2000"`
	Latitude  *float64            `json:"latitude"   validate:"omitempty,latitude"`
	Longitude *float64            `json:"longitude"  validate:"omitempty,longitude"`
	VisitedAt *time.Time          `json:"visited_at"`
}

type SubmitVerification struct {
	repo  verification.Repository
	actor *model.User
	id    core.ID
	input *SubmitInput
}

func NewSubmitVerification(
	repo verification.Repository,
	actor *model.User,
	id core.ID,
	input *SubmitInput,
) *SubmitVerification {
	return &SubmitVerification{repo: repo, actor: actor, id: id, input: input}
}

func (uc *SubmitVerification) Execute(ctx context.Context) (*verification.Verification, error) {
	orgID := uc.actor.OrgID
	v, err := uc.repo.Get(ctx, orgID, uc.id)
	if err != nil {
		return nil, err
	}
	assignee := v.IsAssignee(uc.actor.ID) && uc.actor.Can(model.CapVerificationPerform)
	if !assignee && !uc.actor.Can(model.CapVerificationReview) {
		return nil, verification.ErrNotAssignee
	}
	if v.Status != verification.StatusAssigned {
		return nil, verification.WrongStatus(v.Status, verification.StatusAssigned)
	}
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	if (uc.input.Latitude == nil) != (uc.input.Longitude == nil) {
		return nil, core.Invalid("latitude", "latitude and longitude go together")
	}
	details, err := verification.NormalizeDetails(v.Type, uc.input.Details)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	visited := now
	if uc.input.VisitedAt != nil {
		if uc.input.VisitedAt.After(now.Add(time.Minute)) {
			return nil, core.Invalid("visited_at", "must not be in the future")
		}
		visited = uc.input.VisitedAt.UTC()
	}
	v.Details = details
	v.Result = uc.input.Result
	v.Remarks = strings.TrimSpace(uc.input.Remarks)
	v.Latitude = uc.input.Latitude
	v.Longitude = uc.input.Longitude
	v.VisitedAt = &visited
	v.Status = verification.StatusSubmitted
	v.UpdatedAt = now
	if err := uc.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Verification submitted",
		"org_id", orgID, "verification_id", v.ID, "result", v.Result, "by", uc.actor.ID)
	return v, nil
}
