package uc

import (
	"context"
	"testing"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeUser(orgID core.ID, role model.Role) *model.User {
	return &model.User{ID: core.MustNewID(), OrgID: orgID, Email: string(role) + "@acme.test", Role: role, Status: model.UserActive}
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	orgID := core.MustNewID()

	t.Run("Should normalize the email and persist the user", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("GetUserByEmail", ctx, orgID, "officer@acme.test").Return(nil, ErrUserNotFound)
		repo.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Email == "officer@acme.test" && u.OrgID == orgID && u.Status == model.UserActive
		})).Return(nil)

		user, err := NewCreateUser(repo, orgID, &CreateUserInput{
			Email: "  Officer@ACME.test ",
			Role:  model.RoleCreditOfficer,
		}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RoleCreditOfficer, user.Role)
		repo.AssertExpectations(t)
	})

	t.Run("Should reject duplicate emails in the organization", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("GetUserByEmail", ctx, orgID, "dup@acme.test").Return(&model.User{}, nil)
		_, err := NewCreateUser(repo, orgID, &CreateUserInput{Email: "dup@acme.test", Role: model.RoleViewer}).Execute(ctx)
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("Should reject unknown roles and bad emails", func(t *testing.T) {
		repo := new(mockRepository)
		_, err := NewCreateUser(repo, orgID, &CreateUserInput{Email: "a@b.test", Role: "root"}).Execute(ctx)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		_, err = NewCreateUser(repo, orgID, &CreateUserInput{Email: "not-an-email", Role: model.RoleViewer}).Execute(ctx)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	orgID := core.MustNewID()

	t.Run("Should refuse to demote the last owner", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleAdmin)
		owner := activeUser(orgID, model.RoleOwner)
		repo.On("GetUserByID", ctx, orgID, owner.ID).Return(owner, nil)
		repo.On("CountActiveOwnersForUpdate", ctx, orgID).Return(1, nil)

		role := model.RoleAdmin
		_, err := NewUpdateUser(repo, admin, owner.ID, &UpdateUserInput{Role: &role}).Execute(ctx)
		assert.ErrorIs(t, err, ErrLastOwner)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("Should allow demoting an owner when another remains", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleOwner)
		owner := activeUser(orgID, model.RoleOwner)
		repo.On("GetUserByID", ctx, orgID, owner.ID).Return(owner, nil)
		repo.On("CountActiveOwnersForUpdate", ctx, orgID).Return(2, nil)
		repo.On("UpdateUser", ctx, owner).Return(nil)

		role := model.RoleManager
		user, err := NewUpdateUser(repo, admin, owner.ID, &UpdateUserInput{Role: &role}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RoleManager, user.Role)
	})

	t.Run("Should forbid changing one's own role", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleAdmin)
		repo.On("GetUserByID", ctx, orgID, admin.ID).Return(admin, nil)
		role := model.RoleOwner
		_, err := NewUpdateUser(repo, admin, admin.ID, &UpdateUserInput{Role: &role}).Execute(ctx)
		assert.ErrorIs(t, err, ErrSelfModification)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("Should let users rename themselves", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleAdmin)
		repo.On("GetUserByID", ctx, orgID, admin.ID).Return(admin, nil)
		repo.On("UpdateUser", ctx, admin).Return(nil)
		name := " Priya Sharma "
		user, err := NewUpdateUser(repo, admin, admin.ID, &UpdateUserInput{Name: &name}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Priya Sharma", user.Name)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	orgID := core.MustNewID()

	t.Run("Should refuse to delete the last owner", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleAdmin)
		owner := activeUser(orgID, model.RoleOwner)
		repo.On("GetUserByID", ctx, orgID, owner.ID).Return(owner, nil)
		repo.On("CountActiveOwnersForUpdate", ctx, orgID).Return(1, nil)
		err := NewDeleteUser(repo, admin, owner.ID).Execute(ctx)
		assert.ErrorIs(t, err, ErrLastOwner)
	})

	t.Run("Should delete other members", func(t *testing.T) {
		repo := new(mockRepository)
		admin := activeUser(orgID, model.RoleAdmin)
		agent := activeUser(orgID, model.RoleFieldAgent)
		repo.On("GetUserByID", ctx, orgID, agent.ID).Return(agent, nil)
		repo.On("DeleteUser", ctx, orgID, agent.ID).Return(nil)
		require.NoError(t, NewDeleteUser(repo, admin, agent.ID).Execute(ctx))
		repo.AssertExpectations(t)
	})

	t.Run("Should refuse self deletion", func(t *testing.T) {
		admin := activeUser(orgID, model.RoleAdmin)
		err := NewDeleteUser(new(mockRepository), admin, admin.ID).Execute(ctx)
		assert.ErrorIs(t, err, ErrSelfModification)
	})
}

func TestBootstrapOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create the organization, owner and a key", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CreateOrganizationIfNone", ctx, mock.MatchedBy(func(o *model.Organization) bool {
			return o.Slug == "acme-finance" && o.Status == model.OrgActive
		}), mock.MatchedBy(func(u *model.User) bool {
			return u.Role == model.RoleOwner && u.Email == "founder@acme.test"
		})).Return(nil)
		repo.On("CreateAPIKey", ctx, mock.AnythingOfType("*model.APIKey")).Return(nil)

		res, err := NewBootstrapOrganization(repo, "lf_", &BootstrapInput{
			OrgName:    "Acme Finance",
			OwnerEmail: "Founder@acme.test",
		}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, res.Organization.ID, res.Owner.OrgID)
		assert.Regexp(t, `^lf_[A-Za-z0-9]{32}$`, res.APIKey)
	})

	t.Run("Should fail once an organization exists", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CreateOrganizationIfNone", ctx, mock.Anything, mock.Anything).Return(ErrAlreadyBootstrapped)
		_, err := NewBootstrapOrganization(repo, "lf_", &BootstrapInput{
			OrgName:    "Acme",
			OwnerEmail: "a@acme.test",
		}).Execute(ctx)
		assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
		repo.AssertNotCalled(t, "CreateAPIKey", mock.Anything, mock.Anything)
	})
}
