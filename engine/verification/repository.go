package verification

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
)

type Repository interface {
	Create(ctx context.Context, v *Verification) error
	Get(ctx context.Context, orgID, id core.ID) (*Verification, error)
	ListByApplication(ctx context.Context, orgID, appID core.ID) ([]*Verification, error)
	// FindActive returns the non-rejected verification of type t, or ErrNotFound.
	FindActive(ctx context.Context, orgID, appID core.ID, t Type) (*Verification, error)
	Update(ctx context.Context, v *Verification) error
}
