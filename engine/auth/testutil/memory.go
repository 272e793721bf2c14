// Package testutil provides an in-memory auth repository for handler and
// middleware tests.
package testutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/core"
	"golang.org/x/crypto/bcrypt"
)

// InMemoryRepo implements uc.Repository over maps.
type InMemoryRepo struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	orgs     map[core.ID]*model.Organization
	users    map[core.ID]*model.User
	keys     map[core.ID]*model.APIKey
	orgReads int
}

var _ uc.Repository = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		orgs:  map[core.ID]*model.Organization{},
		users: map[core.ID]*model.User{},
		keys:  map[core.ID]*model.APIKey{},
	}
}

// SeedOrg stores an active organization and returns it.
func (r *InMemoryRepo) SeedOrg(name string) *model.Organization {
	now := time.Now().UTC()
	org := &model.Organization{
		ID:        core.MustNewID(),
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Status:    model.OrgActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = org
	return org
}

// SeedUser stores an active user with role in org.
func (r *InMemoryRepo) SeedUser(orgID core.ID, email string, role model.Role) *model.User {
	now := time.Now().UTC()
	user := &model.User{
		ID:        core.MustNewID(),
		OrgID:     orgID,
		Email:     email,
		Name:      email,
		Role:      role,
		Status:    model.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return user
}

// SeedAPIKey stores a key for user and returns its plaintext.
func (r *InMemoryRepo) SeedAPIKey(user *model.User, plaintext string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	fp := sha256.Sum256([]byte(plaintext))
	key := &model.APIKey{
		ID:          core.MustNewID(),
		OrgID:       user.OrgID,
		UserID:      user.ID,
		Hash:        hash,
		Fingerprint: fp[:],
		Prefix:      plaintext[:min(len(plaintext), 8)],
		CreatedAt:   time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = key
	return plaintext
}

// OrgReads counts GetOrganization calls.
func (r *InMemoryRepo) OrgReads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orgReads
}

// SetOrgStatus changes a stored organization's status.
func (r *InMemoryRepo) SetOrgStatus(orgID core.ID, status model.OrgStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org, ok := r.orgs[orgID]; ok {
		org.Status = status
	}
}

func (r *InMemoryRepo) CreateOrganizationIfNone(_ context.Context, org *model.Organization, owner *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.orgs) > 0 {
		return uc.ErrAlreadyBootstrapped
	}
	r.orgs[org.ID] = org
	r.users[owner.ID] = owner
	return nil
}

func (r *InMemoryRepo) GetOrganization(_ context.Context, id core.ID) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgReads++
	org, ok := r.orgs[id]
	if !ok {
		return nil, uc.ErrOrgNotFound
	}
	clone := *org
	return &clone, nil
}

func (r *InMemoryRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.OrgID == user.OrgID && strings.EqualFold(u.Email, user.Email) {
			return uc.ErrEmailExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *InMemoryRepo) findUser(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, uc.ErrUserNotFound
}

func (r *InMemoryRepo) GetUserByID(_ context.Context, orgID, id core.ID) (*model.User, error) {
	return r.findUser(func(u *model.User) bool { return u.OrgID == orgID && u.ID == id })
}

func (r *InMemoryRepo) GetUserByEmail(_ context.Context, orgID core.ID, email string) (*model.User, error) {
	return r.findUser(func(u *model.User) bool { return u.OrgID == orgID && strings.EqualFold(u.Email, email) })
}

func (r *InMemoryRepo) GetUserByAuthSubject(_ context.Context, subject string) (*model.User, error) {
	return r.findUser(func(u *model.User) bool { return u.AuthSubject != nil && *u.AuthSubject == subject })
}

func (r *InMemoryRepo) ListUnlinkedUsersByEmail(_ context.Context, email string) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		if u.AuthSubject == nil && strings.EqualFold(u.Email, email) {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *InMemoryRepo) ListUsers(_ context.Context, orgID core.ID, page core.Page) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		if u.OrgID == orgID && u.ID > page.After {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (r *InMemoryRepo) UpdateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok || existing.OrgID != user.OrgID {
		return uc.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *InMemoryRepo) DeleteUser(_ context.Context, orgID, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[id]
	if !ok || existing.OrgID != orgID {
		return uc.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// WithTransaction runs transactions one at a time and restores users when
// fn fails.
func (r *InMemoryRepo) WithTransaction(_ context.Context, fn func(uc.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	users := make(map[core.ID]model.User, len(r.users))
	for k, v := range r.users {
		users[k] = *v
	}
	r.mu.Unlock()
	if err := fn(r); err != nil {
		r.mu.Lock()
		r.users = make(map[core.ID]*model.User, len(users))
		for k, v := range users {
			r.users[k] = &v
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *InMemoryRepo) CountActiveOwnersForUpdate(_ context.Context, orgID core.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.OrgID == orgID && u.Role == model.RoleOwner && u.Status == model.UserActive {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepo) LinkAuthSubject(_ context.Context, userID core.ID, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.AuthSubject != nil {
		return uc.ErrUserNotFound
	}
	u.AuthSubject = &subject
	return nil
}

func (r *InMemoryRepo) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = key
	return nil
}

func (r *InMemoryRepo) GetAPIKeyByID(_ context.Context, orgID, id core.ID) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok || key.OrgID != orgID {
		return nil, uc.ErrAPIKeyNotFound
	}
	clone := *key
	return &clone, nil
}

func (r *InMemoryRepo) GetAPIKeyByFingerprint(_ context.Context, fingerprint []byte) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		if bytes.Equal(key.Fingerprint, fingerprint) {
			clone := *key
			return &clone, nil
		}
	}
	return nil, uc.ErrAPIKeyNotFound
}

func (r *InMemoryRepo) ListAPIKeysByUserID(_ context.Context, orgID, userID core.ID) ([]*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.APIKey
	for _, key := range r.keys {
		if key.OrgID == orgID && key.UserID == userID {
			clone := *key
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepo) UpdateAPIKeyLastUsed(_ context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok {
		return uc.ErrAPIKeyNotFound
	}
	key.LastUsed = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	return nil
}

func (r *InMemoryRepo) DeleteAPIKey(_ context.Context, orgID, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok || key.OrgID != orgID {
		return uc.ErrAPIKeyNotFound
	}
	delete(r.keys, id)
	return nil
}
