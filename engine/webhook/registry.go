package webhook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Outcome describes what a handler did with a delivery.
type Outcome struct {
	Event   string
	Ignored bool
}

// Handler applies a verified, first-seen payload.
type Handler func(ctx context.Context, body []byte) (Outcome, error)

type RegistryEntry struct {
	Slug         string
	Verify       VerifyConfig
	DedupeHeader string
	DedupeTTL    time.Duration
	Handler      Handler
}

type Registry struct {
	mu     sync.RWMutex
	bySlug map[string]RegistryEntry
}

var ErrDuplicateSlug = errors.New("duplicate webhook slug")

func NewRegistry() *Registry {
	return &Registry{bySlug: map[string]RegistryEntry{}}
}

type Lookup interface {
	Get(string) (RegistryEntry, bool)
}

func normalizeSlug(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *Registry) Add(e RegistryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalizeSlug(e.Slug)
	if key == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if e.Handler == nil {
		return fmt.Errorf("webhook %s has no handler", key)
	}
	if _, ok := r.bySlug[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, key)
	}
	r.bySlug[key] = e
	return nil
}

func (r *Registry) Get(slug string) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.bySlug[normalizeSlug(slug)]
	return e, ok
}

func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bySlug))
	for k := range r.bySlug {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
