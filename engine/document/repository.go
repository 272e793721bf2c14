package document

import (
	"context"

	"github.com/lendflow/lendflow/engine/core"
)

type Repository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, orgID, id core.ID) (*Document, error)
	ListByApplication(ctx context.Context, orgID, appID core.ID) ([]*Document, error)
	MarkUploaded(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, orgID, id core.ID) error
}
