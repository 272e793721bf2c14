package loan

import (
	"context"
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

type Repository interface {
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, orgID, id core.ID) (*Application, error)
	// GetApplicationForUpdate locks the row until the surrounding
	// transaction ends. It fails outside WithTransaction.
	GetApplicationForUpdate(ctx context.Context, orgID, id core.ID) (*Application, error)
	ListApplications(ctx context.Context, orgID core.ID, filter Filter, page core.Page) ([]*Application, error)
	UpdateApplication(ctx context.Context, app *Application) error
	CountApplicationsSince(ctx context.Context, orgID core.ID, since time.Time) (int, error)

	AppendStatusLog(ctx context.Context, log *StatusLog) error
	ListStatusLogs(ctx context.Context, orgID, appID core.ID) ([]*StatusLog, error)

	CreateReview(ctx context.Context, review *Review) error
	ListReviews(ctx context.Context, orgID, appID core.ID) ([]*Review, error)

	UpsertConfirmation(ctx context.Context, conf *Confirmation) error
	GetConfirmation(ctx context.Context, orgID, appID core.ID) (*Confirmation, error)

	WithTransaction(ctx context.Context, fn func(Repository) error) error
}
