package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

// InMemoryRepo is a loan.Repository for use case and handler tests.
// WithTransaction stages writes and applies them only when fn succeeds.
type InMemoryRepo struct {
	mu            sync.Mutex
	apps          map[core.ID]*loan.Application
	logs          []*loan.StatusLog
	reviews       []*loan.Review
	confirmations map[core.ID]*loan.Confirmation
	failOn        string
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		apps:          make(map[core.ID]*loan.Application),
		confirmations: make(map[core.ID]*loan.Confirmation),
	}
}

// FailOn makes the named write method return an error, to exercise rollbacks.
func (r *InMemoryRepo) FailOn(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn = method
}

// Seed stores app as is.
func (r *InMemoryRepo) Seed(app *loan.Application) *loan.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *app
	r.apps[app.ID] = &clone
	return app
}

var errInjected = errors.New("injected failure")

func (r *InMemoryRepo) fail(method string) error {
	if r.failOn == method {
		return errInjected
	}
	return nil
}

func (r *InMemoryRepo) CreateApplication(_ context.Context, app *loan.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.Number == app.Number {
			return loan.ErrNumberExists
		}
	}
	clone := *app
	r.apps[app.ID] = &clone
	return nil
}

func (r *InMemoryRepo) GetApplication(_ context.Context, orgID, id core.ID) (*loan.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok || app.OrgID != orgID {
		return nil, loan.ErrApplicationNotFound
	}
	clone := *app
	return &clone, nil
}

func (r *InMemoryRepo) GetApplicationForUpdate(ctx context.Context, orgID, id core.ID) (*loan.Application, error) {
	return r.GetApplication(ctx, orgID, id)
}

func (r *InMemoryRepo) ListApplications(
	_ context.Context,
	orgID core.ID,
	filter loan.Filter,
	page core.Page,
) ([]*loan.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*loan.Application, 0)
	for _, app := range r.apps {
		switch {
		case app.OrgID != orgID,
			page.After != "" && app.ID <= page.After,
			filter.Status != "" && app.Status != filter.Status,
			filter.ApplicantID != "" && app.ApplicantID != filter.ApplicantID,
			filter.AssignedTo != "" && (app.AssignedTo == nil || *app.AssignedTo != filter.AssignedTo):
			continue
		}
		clone := *app
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (r *InMemoryRepo) UpdateApplication(_ context.Context, app *loan.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpdateApplication"); err != nil {
		return err
	}
	existing, ok := r.apps[app.ID]
	if !ok || existing.OrgID != app.OrgID {
		return loan.ErrApplicationNotFound
	}
	clone := *app
	r.apps[app.ID] = &clone
	return nil
}

func (r *InMemoryRepo) CountApplicationsSince(_ context.Context, orgID core.ID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, app := range r.apps {
		if app.OrgID == orgID && !app.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepo) AppendStatusLog(_ context.Context, log *loan.StatusLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("AppendStatusLog"); err != nil {
		return err
	}
	clone := *log
	r.logs = append(r.logs, &clone)
	return nil
}

func (r *InMemoryRepo) ListStatusLogs(_ context.Context, orgID, appID core.ID) ([]*loan.StatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*loan.StatusLog, 0)
	for _, log := range r.logs {
		if log.OrgID == orgID && log.ApplicationID == appID {
			clone := *log
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *InMemoryRepo) CreateReview(_ context.Context, review *loan.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("CreateReview"); err != nil {
		return err
	}
	clone := *review
	r.reviews = append(r.reviews, &clone)
	return nil
}

func (r *InMemoryRepo) ListReviews(_ context.Context, orgID, appID core.ID) ([]*loan.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*loan.Review, 0)
	for _, review := range r.reviews {
		if review.OrgID == orgID && review.ApplicationID == appID {
			clone := *review
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *InMemoryRepo) UpsertConfirmation(_ context.Context, conf *loan.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpsertConfirmation"); err != nil {
		return err
	}
	clone := *conf
	r.confirmations[conf.ApplicationID] = &clone
	return nil
}

func (r *InMemoryRepo) GetConfirmation(_ context.Context, orgID, appID core.ID) (*loan.Confirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conf, ok := r.confirmations[appID]
	if !ok || conf.OrgID != orgID {
		return nil, loan.ErrConfirmationNotFound
	}
	clone := *conf
	return &clone, nil
}

// WithTransaction snapshots state and restores it when fn fails.
func (r *InMemoryRepo) WithTransaction(_ context.Context, fn func(loan.Repository) error) error {
	r.mu.Lock()
	apps := make(map[core.ID]*loan.Application, len(r.apps))
	for id, app := range r.apps {
		clone := *app
		apps[id] = &clone
	}
	confirmations := make(map[core.ID]*loan.Confirmation, len(r.confirmations))
	for id, conf := range r.confirmations {
		confirmations[id] = conf
	}
	logs := len(r.logs)
	reviews := len(r.reviews)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.apps = apps
		r.confirmations = confirmations
		r.logs = r.logs[:logs]
		r.reviews = r.reviews[:reviews]
		r.mu.Unlock()
		return err
	}
	return nil
}
