package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
)

// InMemoryRepo is an applicant.Repository for handler and use case tests.
type InMemoryRepo struct {
	mu           sync.Mutex
	items        map[core.ID]*applicant.Applicant
	applications map[core.ID]int
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		items:        make(map[core.ID]*applicant.Applicant),
		applications: make(map[core.ID]int),
	}
}

// SetApplicationCount fakes the number of loan applications referencing id.
func (r *InMemoryRepo) SetApplicationCount(id core.ID, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applications[id] = n
}

func (r *InMemoryRepo) Create(_ context.Context, a *applicant.Applicant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.OrgID == a.OrgID && existing.PAN == a.PAN {
			return applicant.ErrPANExists
		}
	}
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, orgID, id core.ID) (*applicant.Applicant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok || a.OrgID != orgID {
		return nil, applicant.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *InMemoryRepo) List(
	_ context.Context,
	orgID core.ID,
	filter applicant.Filter,
	page core.Page,
) ([]*applicant.Applicant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term := strings.ToLower(filter.Search)
	out := make([]*applicant.Applicant, 0)
	for _, a := range r.items {
		if a.OrgID != orgID || (page.After != "" && a.ID <= page.After) {
			continue
		}
		if term != "" &&
			!strings.HasPrefix(strings.ToLower(a.FirstName), term) &&
			!strings.HasPrefix(strings.ToLower(a.LastName), term) &&
			a.PAN != core.NormalizePAN(filter.Search) {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (r *InMemoryRepo) Update(_ context.Context, a *applicant.Applicant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[a.ID]
	if !ok || existing.OrgID != a.OrgID {
		return applicant.ErrNotFound
	}
	for id, other := range r.items {
		if id != a.ID && other.OrgID == a.OrgID && other.PAN == a.PAN {
			return applicant.ErrPANExists
		}
	}
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, orgID, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok || a.OrgID != orgID {
		return applicant.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *InMemoryRepo) CountApplications(_ context.Context, _ core.ID, id core.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applications[id], nil
}
