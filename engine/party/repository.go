package party

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

// ApplicationRef is the slice of a loan application that party rules need.
type ApplicationRef struct {
	ID          core.ID     `db:"id"`
	ApplicantID core.ID     `db:"applicant_id"`
	Status      loan.Status `db:"status"`
}

type Repository interface {
	Create(ctx context.Context, p *Party) error
	Get(ctx context.Context, orgID, id core.ID) (*Party, error)
	// List returns the parties of an application, optionally of one kind.
	List(ctx context.Context, orgID, appID core.ID, kind Kind) ([]*Party, error)
	Update(ctx context.Context, p *Party) error
	Delete(ctx context.Context, orgID, id core.ID) error

	GetApplication(ctx context.Context, orgID, appID core.ID) (*ApplicationRef, error)
	// LockApplication reads the application FOR UPDATE so limit and PAN
	// checks on its parties are serialized. Only valid inside WithTransaction.
	LockApplication(ctx context.Context, orgID, appID core.ID) (*ApplicationRef, error)
	WithTransaction(ctx context.Context, fn func(Repository) error) error
}
