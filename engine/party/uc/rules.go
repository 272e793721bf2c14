package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/party"
)

// lockOpen locks the application and refuses changes once it is decided.
func lockOpen(ctx context.Context, tx party.Repository, orgID, appID core.ID) (*party.ApplicationRef, error) {
	ref, err := tx.LockApplication(ctx, orgID, appID)
	if err != nil {
		return nil, err
	}
	if ref.Status.Terminal() {
		return nil, party.ErrLocked
	}
	return ref, nil
}

// checkPAN rejects a PAN already used by the primary applicant or by another
// party on the same application. self is skipped when updating.
func checkPAN(
	ctx context.Context,
	tx party.Repository,
	applicants ApplicantReader,
	ref *party.ApplicationRef,
	orgID core.ID,
	pan string,
	self core.ID,
) error {
	primary, err := applicants.Get(ctx, orgID, ref.ApplicantID)
	if err != nil {
		return err
	}
	if primary.PAN == pan {
		return party.ErrDuplicatePAN
	}
	others, err := tx.List(ctx, orgID, ref.ID, "")
	if err != nil {
		return err
	}
	for _, p := range others {
		if p.ID != self && p.PAN == pan {
			return party.ErrDuplicatePAN
		}
	}
	return nil
}
