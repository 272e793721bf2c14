package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/infra/objectstore"
)

// InMemoryRepo is a document.Repository backed by a map.
type InMemoryRepo struct {
	mu   sync.Mutex
	docs map[core.ID]*document.Document
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{docs: make(map[core.ID]*document.Document)}
}

func (r *InMemoryRepo) Create(_ context.Context, doc *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, orgID, id core.ID) (*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID {
		return nil, document.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (r *InMemoryRepo) ListByApplication(_ context.Context, orgID, appID core.ID) ([]*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*document.Document, 0)
	for _, doc := range r.docs {
		if doc.OrgID == orgID && doc.ApplicationID == appID {
			clone := *doc
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepo) MarkUploaded(_ context.Context, doc *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.OrgID != doc.OrgID {
		return document.ErrNotFound
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, orgID, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID {
		return document.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// FakeStorage keeps objects in memory and hands out fake presigned URLs.
type FakeStorage struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	data        []byte
	contentType string
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{objects: make(map[string]fakeObject)}
}

// Store simulates a client finishing a presigned PUT.
func (s *FakeStorage) Store(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = fakeObject{data: data, contentType: contentType}
}

func (s *FakeStorage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *FakeStorage) PresignPut(_ context.Context, key, _ string) (string, error) {
	return fmt.Sprintf("https://storage.test/put/%s", key), nil
}

func (s *FakeStorage) PresignGet(_ context.Context, key, fileName string) (string, error) {
	return fmt.Sprintf("https://storage.test/get/%s?name=%s", key, fileName), nil
}

func (s *FakeStorage) Head(_ context.Context, key string) (*objectstore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return &objectstore.ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (s *FakeStorage) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.Store(key, contentType, data)
	return nil
}

func (s *FakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *FakeStorage) TTL() time.Duration { return 15 * time.Minute }
