package uc

import (
	"context"
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/pkg/logger"
)

type StatusInput struct {
	Status  loan.Status `json:"status"  validate:"required"`
	Remarks string      `json:"remarks" validate:"max=2000"`
}

// TransitionResult is the application after a status move and the log row
// recording it.
type TransitionResult struct {
	Application *loan.Application `json:"application"`
	Log         *loan.StatusLog   `json:"log"`
}

// transition locks the application, validates the move, updates the status
// and appends the log. tx must be transactional.
func transition(
	ctx context.Context,
	tx loan.Repository,
	orgID, appID core.ID,
	to loan.Status,
	remarks string,
	changedBy core.ID,
) (*TransitionResult, error) {
	app, err := tx.GetApplicationForUpdate(ctx, orgID, appID)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if err := loan.ValidateTransition(from, to); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	app.Status = to
	app.UpdatedAt = now
	if err := tx.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	entry := &loan.StatusLog{
		ID:            core.MustNewID(),
		OrgID:         orgID,
		ApplicationID: appID,
		FromStatus:    from,
		ToStatus:      to,
		Remarks:       strings.TrimSpace(remarks),
		ChangedBy:     changedBy,
		CreatedAt:     now,
	}
	if err := tx.AppendStatusLog(ctx, entry); err != nil {
		return nil, err
	}
	return &TransitionResult{Application: app, Log: entry}, nil
}

func recordTransition(ctx context.Context, metrics *monitoring.DomainMetrics, res *TransitionResult) {
	metrics.StatusTransition(ctx, string(res.Log.FromStatus), string(res.Log.ToStatus))
	logger.FromContext(ctx).Info("Loan application status changed",
		"org_id", res.Application.OrgID,
		"application_id", res.Application.ID,
		"from", res.Log.FromStatus,
		"to", res.Log.ToStatus,
		"changed_by", res.Log.ChangedBy,
	)
}

// requiredCapability returns the capability needed to move into to. Credit
// decisions and disbursal need loan.confirm; everything else is routine.
func requiredCapability(to loan.Status) model.Capability {
	switch to {
	case loan.StatusApproved, loan.StatusRejected, loan.StatusDisbursed:
		return model.CapLoanConfirm
	}
	return model.CapApplicationsWrite
}

// UpdateStatus is UpdateLoanApplicationStatusWithLog: one transaction that
// locks the row, checks the transition table, writes the status and logs it.
type UpdateStatus struct {
	repo    loan.Repository
	metrics *monitoring.DomainMetrics
	actor   *model.User
	id      core.ID
	input   *StatusInput
}

func NewUpdateStatus(
	repo loan.Repository,
	metrics *monitoring.DomainMetrics,
	actor *model.User,
	id core.ID,
	input *StatusInput,
) *UpdateStatus {
	return &UpdateStatus{repo: repo, metrics: metrics, actor: actor, id: id, input: input}
}

func (uc *UpdateStatus) Execute(ctx context.Context) (*TransitionResult, error) {
	if err := core.ValidateStruct(uc.input); err != nil {
		return nil, err
	}
	if err := uc.actor.Require(requiredCapability(uc.input.Status)); err != nil {
		return nil, err
	}
	return NewMoveStatus(uc.repo, uc.metrics, uc.actor.OrgID, uc.id, uc.input.Status, uc.input.Remarks, uc.actor.ID).
		Execute(ctx)
}

type MoveStatus struct {
	repo      loan.Repository
	metrics   *monitoring.DomainMetrics
	orgID     core.ID
	id        core.ID
	to        loan.Status
	remarks   string
	changedBy core.ID
}

func NewMoveStatus(
	repo loan.Repository,
	metrics *monitoring.DomainMetrics,
	orgID, id core.ID,
	to loan.Status,
	remarks string,
	changedBy core.ID,
) *MoveStatus {
	return &MoveStatus{repo: repo, metrics: metrics, orgID: orgID, id: id, to: to, remarks: remarks, changedBy: changedBy}
}

func (uc *MoveStatus) Execute(ctx context.Context) (*TransitionResult, error) {
	var res *TransitionResult
	err := uc.repo.WithTransaction(ctx, func(tx loan.Repository) error {
		var err error
		res, err = transition(ctx, tx, uc.orgID, uc.id, uc.to, uc.remarks, uc.changedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	recordTransition(ctx, uc.metrics, res)
	return res, nil
}
