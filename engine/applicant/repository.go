package applicant

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
)

type Repository interface {
	Create(ctx context.Context, a *Applicant) error
	Get(ctx context.Context, orgID, id core.ID) (*Applicant, error)
	List(ctx context.Context, orgID core.ID, filter Filter, page core.Page) ([]*Applicant, error)
	Update(ctx context.Context, a *Applicant) error
	Delete(ctx context.Context, orgID, id core.ID) error
	CountApplications(ctx context.Context, orgID, id core.ID) (int, error)
}
