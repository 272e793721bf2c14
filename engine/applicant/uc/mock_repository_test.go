package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, a *applicant.Applicant) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepository) Get(ctx context.Context, orgID, id core.ID) (*applicant.Applicant, error) {
	args := m.Called(ctx, orgID, id)
	a, _ := args.Get(0).(*applicant.Applicant)
	return a, args.Error(1)
}

func (m *mockRepository) List(
	ctx context.Context,
	orgID core.ID,
	filter applicant.Filter,
	page core.Page,
) ([]*applicant.Applicant, error) {
	args := m.Called(ctx, orgID, filter, page)
	items, _ := args.Get(0).([]*applicant.Applicant)
	return items, args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, a *applicant.Applicant) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, orgID, id core.ID) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *mockRepository) CountApplications(ctx context.Context, orgID, id core.ID) (int, error) {
	args := m.Called(ctx, orgID, id)
	return args.Int(0), args.Error(1)
}
