package uc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/party"
	"github.com/lendflow/lendflow/engine/verification"
	"golang.org/x/sync/errgroup"
)

// Dossier is everything known about one application, redacted for the caller.
type Dossier struct {
	Application   *loan.Application            `json:"application"`
	Applicant     *applicant.Applicant         `json:"applicant"`
	Parties       []*party.Party               `json:"parties"`
	Documents     []*document.Document         `json:"documents"`
	Verifications []*verification.Verification `json:"verifications"`
	Confirmation  *loan.Confirmation           `json:"confirmation,omitempty"`
	Visibility    loan.ConfirmationVisibility  `json:"visibility"`
}

type GetDossier struct {
	deps  Deps
	actor *model.User
	id    core.ID
}

func NewGetDossier(deps Deps, actor *model.User, id core.ID) *GetDossier {
	return &GetDossier{deps: deps, actor: actor, id: id}
}

// Execute loads the application first, then fans out to every related
// source concurrently. The first failure cancels the rest.
func (uc *GetDossier) Execute(ctx context.Context) (*Dossier, error) {
	orgID := uc.actor.OrgID
	app, err := uc.deps.Repo.GetApplication(ctx, orgID, uc.id)
	if err != nil {
		return nil, err
	}
	d := &Dossier{Application: app}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := uc.deps.Applicants.Get(gctx, orgID, app.ApplicantID)
		if err != nil {
			return fmt.Errorf("loading applicant: %w", err)
		}
		d.Applicant = a
		return nil
	})
	g.Go(func() error {
		if uc.deps.Parties == nil {
			return nil
		}
		parties, err := uc.deps.Parties.List(gctx, orgID, app.ID, "")
		if err != nil {
			return fmt.Errorf("loading parties: %w", err)
		}
		d.Parties = parties
		return nil
	})
	g.Go(func() error {
		if uc.deps.Documents == nil {
			return nil
		}
		docs, err := uc.deps.Documents.ListByApplication(gctx, orgID, app.ID)
		if err != nil {
			return fmt.Errorf("loading documents: %w", err)
		}
		d.Documents = docs
		return nil
	})
	g.Go(func() error {
		if uc.deps.Verifications == nil {
			return nil
		}
		items, err := uc.deps.Verifications.ListByApplication(gctx, orgID, app.ID)
		if err != nil {
			return fmt.Errorf("loading verifications: %w", err)
		}
		d.Verifications = items
		return nil
	})
	g.Go(func() error {
		conf, err := uc.deps.Repo.GetConfirmation(gctx, orgID, app.ID)
		if err != nil {
			if errors.Is(err, loan.ErrConfirmationNotFound) {
				return nil
			}
			return fmt.Errorf("loading confirmation: %w", err)
		}
		d.Confirmation = conf
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	uc.redact(d)
	return d, nil
}

func (uc *GetDossier) redact(d *Dossier) {
	d.Visibility = loan.DefineLoanConfirmationFieldVisibility(uc.actor)
	d.Confirmation = d.Visibility.Redact(d.Confirmation)
	for i, v := range d.Verifications {
		d.Verifications[i] = verification.DefineVerificationFieldVisibility(uc.actor, v).Redact(v)
	}
	if d.Parties == nil {
		d.Parties = []*party.Party{}
	}
	if d.Documents == nil {
		d.Documents = []*document.Document{}
	}
	if d.Verifications == nil {
		d.Verifications = []*verification.Verification{}
	}
}
