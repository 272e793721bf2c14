package loan

import (
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

type Status string

const (
	StatusDraft          Status = "draft"
	StatusSubmitted      Status = "submitted"
	StatusInVerification Status = "in_verification"
	StatusUnderReview    Status = "under_review"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusOnHold         Status = "on_hold"
	StatusDisbursed      Status = "disbursed"
	StatusCancelled      Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:          {StatusSubmitted, StatusCancelled},
	StatusSubmitted:      {StatusInVerification, StatusUnderReview, StatusCancelled},
	StatusInVerification: {StatusUnderReview, StatusOnHold, StatusCancelled},
	StatusUnderReview:    {StatusApproved, StatusRejected, StatusOnHold},
	StatusOnHold:         {StatusUnderReview, StatusInVerification, StatusRejected, StatusCancelled},
	StatusApproved:       {StatusDisbursed, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusInVerification, StatusUnderReview,
		StatusApproved, StatusRejected, StatusOnHold, StatusDisbursed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether parties and terms are frozen.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusDisbursed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an INVALID_TRANSITION error unless from may move to to.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return core.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	if from == to {
		return core.NewError(
			fmt.Errorf("application is already %s", to),
			core.CodeInvalidTransition,
			map[string]any{"from": string(from), "to": string(to)},
		)
	}
	if !CanTransition(from, to) {
		return core.NewError(
			fmt.Errorf("cannot move application from %s to %s", from, to),
			core.CodeInvalidTransition,
			map[string]any{"from": string(from), "to": string(to), "allowed": NextStatuses(from)},
		)
	}
	return nil
}
