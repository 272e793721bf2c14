package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

// WithTransaction runs fn inline so expectations stay on the same mock.
func (m *mockRepository) WithTransaction(_ context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *mockRepository) CreateOrganizationIfNone(ctx context.Context, org *model.Organization, owner *model.User) error {
	return m.Called(ctx, org, owner).Error(0)
}

func (m *mockRepository) GetOrganization(ctx context.Context, id core.ID) (*model.Organization, error) {
	args := m.Called(ctx, id)
	org, _ := args.Get(0).(*model.Organization)
	return org, args.Error(1)
}

func (m *mockRepository) CreateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) GetUserByID(ctx context.Context, orgID, id core.ID) (*model.User, error) {
	args := m.Called(ctx, orgID, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockRepository) GetUserByEmail(ctx context.Context, orgID core.ID, email string) (*model.User, error) {
	args := m.Called(ctx, orgID, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockRepository) GetUserByAuthSubject(ctx context.Context, subject string) (*model.User, error) {
	args := m.Called(ctx, subject)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockRepository) ListUnlinkedUsersByEmail(ctx context.Context, email string) ([]*model.User, error) {
	args := m.Called(ctx, email)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *mockRepository) ListUsers(ctx context.Context, orgID core.ID, page core.Page) ([]*model.User, error) {
	args := m.Called(ctx, orgID, page)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *mockRepository) UpdateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) DeleteUser(ctx context.Context, orgID, id core.ID) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *mockRepository) CountActiveOwnersForUpdate(ctx context.Context, orgID core.ID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) LinkAuthSubject(ctx context.Context, userID core.ID, subject string) error {
	return m.Called(ctx, userID, subject).Error(0)
}

func (m *mockRepository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockRepository) GetAPIKeyByID(ctx context.Context, orgID, id core.ID) (*model.APIKey, error) {
	args := m.Called(ctx, orgID, id)
	key, _ := args.Get(0).(*model.APIKey)
	return key, args.Error(1)
}

func (m *mockRepository) GetAPIKeyByFingerprint(ctx context.Context, fingerprint []byte) (*model.APIKey, error) {
	args := m.Called(ctx, fingerprint)
	key, _ := args.Get(0).(*model.APIKey)
	return key, args.Error(1)
}

func (m *mockRepository) ListAPIKeysByUserID(ctx context.Context, orgID, userID core.ID) ([]*model.APIKey, error) {
	args := m.Called(ctx, orgID, userID)
	keys, _ := args.Get(0).([]*model.APIKey)
	return keys, args.Error(1)
}

func (m *mockRepository) UpdateAPIKeyLastUsed(ctx context.Context, id core.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) DeleteAPIKey(ctx context.Context, orgID, id core.ID) error {
	return m.Called(ctx, orgID, id).Error(0)
}
