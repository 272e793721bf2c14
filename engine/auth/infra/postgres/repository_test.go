package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lendflow/lendflow/engine/auth/infra/postgres"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "org_id", "email", "name", "role", "auth_subject", "status", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func TestRepository_CreateOrganizationIfNone(t *testing.T) {
	now := time.Now()
	org := &model.Organization{
		ID:        core.MustNewID(),
		Name:      "Acme Finance",
		Slug:      "acme-finance",
		Status:    model.OrgActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &model.User{
		ID:        core.MustNewID(),
		OrgID:     org.ID,
		Email:     "owner@acme.test",
		Name:      "Owner",
		Role:      model.RoleOwner,
		Status:    model.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Run("Should insert organization and owner in one transaction", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("LOCK TABLE organizations").WillReturnResult(pgxmock.NewResult("LOCK", 0))
		mockPool.ExpectExec("INSERT INTO organizations").
			WithArgs(org.ID, org.Name, org.Slug, org.Status, org.CreatedAt, org.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO users").
			WithArgs(
				owner.ID, owner.OrgID, owner.Email, owner.Name, owner.Role,
				owner.AuthSubject, owner.Status, owner.CreatedAt, owner.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		err := repo.CreateOrganizationIfNone(context.Background(), org, owner)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should refuse a second bootstrap", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("LOCK TABLE organizations").WillReturnResult(pgxmock.NewResult("LOCK", 0))
		mockPool.ExpectExec("INSERT INTO organizations").
			WithArgs(org.ID, org.Name, org.Slug, org.Status, org.CreatedAt, org.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockPool.ExpectRollback()
		err := repo.CreateOrganizationIfNone(context.Background(), org, owner)
		require.ErrorIs(t, err, uc.ErrAlreadyBootstrapped)
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_CreateUser(t *testing.T) {
	t.Run("Should map unique violations to ErrEmailExists", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		user := &model.User{
			ID:     core.MustNewID(),
			OrgID:  core.MustNewID(),
			Email:  "dup@acme.test",
			Name:   "Dup",
			Role:   model.RoleViewer,
			Status: model.UserActive,
		}
		mockPool.ExpectExec("INSERT INTO users").
			WithArgs(
				user.ID, user.OrgID, user.Email, user.Name, user.Role,
				user.AuthSubject, user.Status, user.CreatedAt, user.UpdatedAt,
			).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		err := repo.CreateUser(context.Background(), user)
		assert.ErrorIs(t, err, uc.ErrEmailExists)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_GetUserByID(t *testing.T) {
	t.Run("Should scan the user scoped to the organization", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		orgID := core.MustNewID()
		userID := core.MustNewID()
		now := time.Now()
		var noSubject *string
		rows := mockPool.NewRows(userCols).
			AddRow(userID, orgID, "ana@acme.test", "Ana", model.RoleCreditOfficer, noSubject, model.UserActive, now, now)
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1 AND org_id = \\$2").
			WithArgs(userID, orgID).
			WillReturnRows(rows)
		user, err := repo.GetUserByID(context.Background(), orgID, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, model.RoleCreditOfficer, user.Role)
		assert.Nil(t, user.AuthSubject)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return ErrUserNotFound when no row matches", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		orgID := core.MustNewID()
		userID := core.MustNewID()
		mockPool.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(userID, orgID).
			WillReturnError(pgx.ErrNoRows)
		user, err := repo.GetUserByID(context.Background(), orgID, userID)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, uc.ErrUserNotFound)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepository_UpdateUser(t *testing.T) {
	t.Run("Should return ErrUserNotFound when nothing was updated", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		user := &model.User{
			ID:        core.MustNewID(),
			OrgID:     core.MustNewID(),
			Name:      "Ana",
			Role:      model.RoleManager,
			Status:    model.UserActive,
			UpdatedAt: time.Now(),
		}
		mockPool.ExpectExec("UPDATE users SET").
			WithArgs(user.Name, user.Role, user.Status, user.UpdatedAt, user.ID, user.OrgID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		err := repo.UpdateUser(context.Background(), user)
		assert.ErrorIs(t, err, uc.ErrUserNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_CountActiveOwnersForUpdate(t *testing.T) {
	t.Run("Should lock and count active owners inside a transaction", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		orgID := core.MustNewID()
		userID := core.MustNewID()
		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT id FROM users WHERE (.+) FOR UPDATE").
			WithArgs(orgID, model.RoleOwner, model.UserActive).
			WillReturnRows(mockPool.NewRows([]string{"id"}).AddRow(core.MustNewID()).AddRow(userID))
		mockPool.ExpectExec("DELETE FROM users").
			WithArgs(userID, orgID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectCommit()

		var n int
		err := repo.WithTransaction(context.Background(), func(tx uc.Repository) error {
			var err error
			if n, err = tx.CountActiveOwnersForUpdate(context.Background(), orgID); err != nil {
				return err
			}
			return tx.DeleteUser(context.Background(), orgID, userID)
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should refuse to lock owners outside a transaction", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		_, err := repo.CountActiveOwnersForUpdate(context.Background(), core.MustNewID())
		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_LinkAuthSubject(t *testing.T) {
	t.Run("Should only link users without a subject", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		userID := core.MustNewID()
		mockPool.ExpectExec("UPDATE users SET auth_subject = \\$1, updated_at = now\\(\\) WHERE id = \\$2 AND auth_subject IS NULL").
			WithArgs("idp|123", userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		require.NoError(t, repo.LinkAuthSubject(context.Background(), userID, "idp|123"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_APIKeys(t *testing.T) {
	t.Run("Should look keys up by fingerprint", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		keyID := core.MustNewID()
		orgID := core.MustNewID()
		userID := core.MustNewID()
		fingerprint := []byte("fp")
		now := time.Now()
		rows := mockPool.NewRows([]string{
			"id", "org_id", "user_id", "hash", "fingerprint", "prefix", "created_at", "last_used",
		}).AddRow(keyID, orgID, userID, []byte("hash"), fingerprint, "lf_", now, nil)
		mockPool.ExpectQuery("SELECT (.+) FROM api_keys WHERE fingerprint = \\$1").
			WithArgs(fingerprint).
			WillReturnRows(rows)
		key, err := repo.GetAPIKeyByFingerprint(context.Background(), fingerprint)
		require.NoError(t, err)
		assert.Equal(t, keyID, key.ID)
		assert.Equal(t, userID, key.UserID)
		assert.False(t, key.LastUsed.Valid)
	})
	t.Run("Should return ErrAPIKeyNotFound when deleting a missing key", func(t *testing.T) {
		mockPool := newMock(t)
		repo := postgres.NewRepository(mockPool)
		orgID := core.MustNewID()
		keyID := core.MustNewID()
		mockPool.ExpectExec("DELETE FROM api_keys").
			WithArgs(keyID, orgID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		err := repo.DeleteAPIKey(context.Background(), orgID, keyID)
		assert.ErrorIs(t, err, uc.ErrAPIKeyNotFound)
	})
}
