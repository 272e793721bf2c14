package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/party"
)

type appEntry struct {
	orgID core.ID
	ref   party.ApplicationRef
}

// InMemoryRepo is a party.Repository backed by maps.
type InMemoryRepo struct {
	mu      sync.Mutex
	parties map[core.ID]*party.Party
	apps    map[core.ID]appEntry
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		parties: make(map[core.ID]*party.Party),
		apps:    make(map[core.ID]appEntry),
	}
}

// SeedApplication registers an application the parties can attach to.
func (r *InMemoryRepo) SeedApplication(orgID, appID, applicantID core.ID, status loan.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[appID] = appEntry{orgID: orgID, ref: party.ApplicationRef{ID: appID, ApplicantID: applicantID, Status: status}}
}

func (r *InMemoryRepo) SetStatus(appID core.ID, status loan.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.apps[appID]
	entry.ref.Status = status
	r.apps[appID] = entry
}

func (r *InMemoryRepo) Create(_ context.Context, p *party.Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.parties {
		if existing.ApplicationID == p.ApplicationID && existing.PAN == p.PAN {
			return party.ErrDuplicatePAN
		}
	}
	clone := *p
	r.parties[p.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, orgID, id core.ID) (*party.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[id]
	if !ok || p.OrgID != orgID {
		return nil, party.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *InMemoryRepo) List(_ context.Context, orgID, appID core.ID, kind party.Kind) ([]*party.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*party.Party, 0)
	for _, p := range r.parties {
		if p.OrgID != orgID || p.ApplicationID != appID || (kind != "" && p.Kind != kind) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepo) Update(_ context.Context, p *party.Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.parties[p.ID]
	if !ok || existing.OrgID != p.OrgID {
		return party.ErrNotFound
	}
	clone := *p
	r.parties[p.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, orgID, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[id]
	if !ok || p.OrgID != orgID {
		return party.ErrNotFound
	}
	delete(r.parties, id)
	return nil
}

func (r *InMemoryRepo) GetApplication(_ context.Context, orgID, appID core.ID) (*party.ApplicationRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.apps[appID]
	if !ok || entry.orgID != orgID {
		return nil, loan.ErrApplicationNotFound
	}
	ref := entry.ref
	return &ref, nil
}

func (r *InMemoryRepo) LockApplication(ctx context.Context, orgID, appID core.ID) (*party.ApplicationRef, error) {
	return r.GetApplication(ctx, orgID, appID)
}

func (r *InMemoryRepo) WithTransaction(_ context.Context, fn func(party.Repository) error) error {
	return fn(r)
}
