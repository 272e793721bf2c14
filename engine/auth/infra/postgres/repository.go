package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/postgres"
)

var (
	userColumns = []string{
		"id", "org_id", "email", "name", "role", "auth_subject", "status", "created_at", "updated_at",
	}
	apiKeyColumns = []string{"id", "org_id", "user_id", "hash", "fingerprint", "prefix", "created_at", "last_used"}
	orgColumns    = []string{"id", "name", "slug", "status", "created_at", "updated_at"}
)

// Repository implements the auth repository interface using PostgreSQL
type Repository struct {
	db   postgres.DB
	inTx bool
}

var errOwnerLockOutsideTx = errors.New("CountActiveOwnersForUpdate requires transactional context")

// NewRepository creates a new auth repository
func NewRepository(db postgres.DB) uc.Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(uc.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx, inTx: true})
	})
}

// CreateOrganizationIfNone inserts the organization only while the table is
// empty. The table lock serializes concurrent bootstraps.
func (r *Repository) CreateOrganizationIfNone(ctx context.Context, org *model.Organization, owner *model.User) error {
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "LOCK TABLE organizations IN EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("locking organizations: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name, slug, status, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, $6
			WHERE NOT EXISTS (SELECT 1 FROM organizations)`,
			org.ID, org.Name, org.Slug, org.Status, org.CreatedAt, org.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating organization: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return uc.ErrAlreadyBootstrapped
		}
		return insertUser(ctx, tx, owner)
	})
}

func (r *Repository) GetOrganization(ctx context.Context, id core.ID) (*model.Organization, error) {
	query, args, err := squirrel.Select(orgColumns...).
		From("organizations").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var org model.Organization
	if err := pgxscan.Get(ctx, r.db, &org, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, uc.ErrOrgNotFound
		}
		return nil, fmt.Errorf("scanning organization: %w", err)
	}
	return &org, nil
}

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return insertUser(ctx, r.db, user)
}

func insertUser(ctx context.Context, db postgres.DB, user *model.User) error {
	query, args, err := squirrel.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.OrgID, user.Email, user.Name, user.Role,
			user.AuthSubject, user.Status, user.CreatedAt, user.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := db.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return uc.ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *Repository) getUser(ctx context.Context, where squirrel.Sqlizer) (*model.User, error) {
	query, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var user model.User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, uc.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID within an organization
func (r *Repository) GetUserByID(ctx context.Context, orgID, id core.ID) (*model.User, error) {
	return r.getUser(ctx, squirrel.Eq{"org_id": orgID, "id": id})
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (r *Repository) GetUserByEmail(ctx context.Context, orgID core.ID, email string) (*model.User, error) {
	return r.getUser(ctx, squirrel.And{
		squirrel.Eq{"org_id": orgID},
		squirrel.Expr("lower(email) = lower(?)", email),
	})
}

func (r *Repository) GetUserByAuthSubject(ctx context.Context, subject string) (*model.User, error) {
	return r.getUser(ctx, squirrel.Eq{"auth_subject": subject})
}

func (r *Repository) ListUnlinkedUsersByEmail(ctx context.Context, email string) ([]*model.User, error) {
	query, args, err := squirrel.Select(userColumns...).
		From("users").
		Where("lower(email) = lower(?)", email).
		Where(squirrel.Eq{"auth_subject": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var users []*model.User
	if err := pgxscan.Select(ctx, r.db, &users, query, args...); err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return users, nil
}

// ListUsers returns one page of users ordered by ID.
func (r *Repository) ListUsers(ctx context.Context, orgID core.ID, page core.Page) ([]*model.User, error) {
	qb := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"org_id": orgID}).
		OrderBy("id").
		Limit(uint64(page.Limit)).
		PlaceholderFormat(squirrel.Dollar)
	if !page.After.IsZero() {
		qb = qb.Where(squirrel.Gt{"id": page.After})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var users []*model.User
	if err := pgxscan.Select(ctx, r.db, &users, query, args...); err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return users, nil
}

// UpdateUser updates user fields
func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.Update("users").
		Set("name", user.Name).
		Set("role", user.Role).
		Set("status", user.Status).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"org_id": user.OrgID, "id": user.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user by ID
func (r *Repository) DeleteUser(ctx context.Context, orgID, id core.ID) error {
	query, args, err := squirrel.Delete("users").
		Where(squirrel.Eq{"org_id": orgID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrUserNotFound
	}
	return nil
}

// CountActiveOwnersForUpdate locks the owner rows rather than counting them,
// since Postgres refuses FOR UPDATE on aggregates. A concurrent demotion
// waits here and then sees the committed role.
func (r *Repository) CountActiveOwnersForUpdate(ctx context.Context, orgID core.ID) (int, error) {
	if !r.inTx {
		return 0, errOwnerLockOutsideTx
	}
	query, args, err := squirrel.Select("id").
		From("users").
		Where(squirrel.Eq{"org_id": orgID, "role": model.RoleOwner, "status": model.UserActive}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building owner query: %w", err)
	}
	var ids []core.ID
	if err := pgxscan.Select(ctx, r.db, &ids, query, args...); err != nil {
		return 0, fmt.Errorf("locking owners: %w", err)
	}
	return len(ids), nil
}

// LinkAuthSubject sets the subject only while it is still empty.
func (r *Repository) LinkAuthSubject(ctx context.Context, userID core.ID, subject string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET auth_subject = $1, updated_at = now() WHERE id = $2 AND auth_subject IS NULL`,
		subject, userID,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return uc.ErrAccountNotLinked
		}
		return fmt.Errorf("linking auth subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrUserNotFound
	}
	return nil
}

// CreateAPIKey creates a new API key
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	query, args, err := squirrel.Insert("api_keys").
		Columns(apiKeyColumns...).
		Values(key.ID, key.OrgID, key.UserID, key.Hash, key.Fingerprint, key.Prefix, key.CreatedAt, key.LastUsed).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting API key: %w", err)
	}
	return nil
}

func (r *Repository) getAPIKey(ctx context.Context, where squirrel.Sqlizer) (*model.APIKey, error) {
	query, args, err := squirrel.Select(apiKeyColumns...).
		From("api_keys").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var key model.APIKey
	if err := pgxscan.Get(ctx, r.db, &key, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, uc.ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("scanning API key: %w", err)
	}
	return &key, nil
}

// GetAPIKeyByID retrieves an API key by ID
func (r *Repository) GetAPIKeyByID(ctx context.Context, orgID, id core.ID) (*model.APIKey, error) {
	return r.getAPIKey(ctx, squirrel.Eq{"org_id": orgID, "id": id})
}

// GetAPIKeyByFingerprint looks a key up by the SHA-256 of its plaintext.
// Callers compare the bcrypt hash themselves.
func (r *Repository) GetAPIKeyByFingerprint(ctx context.Context, fingerprint []byte) (*model.APIKey, error) {
	return r.getAPIKey(ctx, squirrel.Eq{"fingerprint": fingerprint})
}

// ListAPIKeysByUserID retrieves all API keys for a user
func (r *Repository) ListAPIKeysByUserID(ctx context.Context, orgID, userID core.ID) ([]*model.APIKey, error) {
	query, args, err := squirrel.Select(apiKeyColumns...).
		From("api_keys").
		Where(squirrel.Eq{"org_id": orgID, "user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var keys []*model.APIKey
	if err := pgxscan.Select(ctx, r.db, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("scanning API keys: %w", err)
	}
	return keys, nil
}

// UpdateAPIKeyLastUsed updates the last_used timestamp for an API key
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id core.ID) error {
	// GREATEST keeps concurrent updates from moving the timestamp backwards
	query := `UPDATE api_keys SET last_used = GREATEST(last_used, NOW()) WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating API key last_used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrAPIKeyNotFound
	}
	return nil
}

// DeleteAPIKey removes an API key by ID
func (r *Repository) DeleteAPIKey(ctx context.Context, orgID, id core.ID) error {
	query, args, err := squirrel.Delete("api_keys").
		Where(squirrel.Eq{"org_id": orgID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting API key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrAPIKeyNotFound
	}
	return nil
}
