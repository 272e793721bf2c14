package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/verification"
)

// InMemoryRepo is a verification.Repository backed by a map. It enforces
// one active verification per type and application like the database index.
type InMemoryRepo struct {
	mu    sync.Mutex
	items map[core.ID]*verification.Verification
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{items: make(map[core.ID]*verification.Verification)}
}

func (r *InMemoryRepo) Create(_ context.Context, v *verification.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.ApplicationID == v.ApplicationID && existing.Type == v.Type && existing.Active() {
			return verification.ErrActiveExists
		}
	}
	clone := *v
	r.items[v.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, orgID, id core.ID) (*verification.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok || v.OrgID != orgID {
		return nil, verification.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *InMemoryRepo) ListByApplication(_ context.Context, orgID, appID core.ID) ([]*verification.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*verification.Verification, 0)
	for _, v := range r.items {
		if v.OrgID == orgID && v.ApplicationID == appID {
			clone := *v
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *InMemoryRepo) FindActive(
	_ context.Context,
	orgID, appID core.ID,
	t verification.Type,
) (*verification.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.OrgID == orgID && v.ApplicationID == appID && v.Type == t && v.Active() {
			clone := *v
			return &clone, nil
		}
	}
	return nil, verification.ErrNotFound
}

func (r *InMemoryRepo) Update(_ context.Context, v *verification.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[v.ID]
	if !ok || existing.OrgID != v.OrgID {
		return verification.ErrNotFound
	}
	clone := *v
	r.items[v.ID] = &clone
	return nil
}
