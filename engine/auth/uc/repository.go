package uc

import (
	"context"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

// Repository defines all data access operations for the auth domain
type Repository interface {
	// WithTransaction runs fn against a repository bound to one transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// CreateOrganizationIfNone atomically inserts org and its owner when no
	// organization exists yet. Returns ErrAlreadyBootstrapped otherwise.
	CreateOrganizationIfNone(ctx context.Context, org *model.Organization, owner *model.User) error
	GetOrganization(ctx context.Context, id core.ID) (*model.Organization, error)

	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, orgID, id core.ID) (*model.User, error)
	GetUserByEmail(ctx context.Context, orgID core.ID, email string) (*model.User, error)
	GetUserByAuthSubject(ctx context.Context, subject string) (*model.User, error)
	ListUnlinkedUsersByEmail(ctx context.Context, email string) ([]*model.User, error)
	ListUsers(ctx context.Context, orgID core.ID, page core.Page) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, orgID, id core.ID) error
	// CountActiveOwnersForUpdate counts active owners and locks their rows
	// until the transaction ends. It fails outside WithTransaction.
	CountActiveOwnersForUpdate(ctx context.Context, orgID core.ID) (int, error)
	LinkAuthSubject(ctx context.Context, userID core.ID, subject string) error

	// API Key operations
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, orgID, id core.ID) (*model.APIKey, error)
	GetAPIKeyByFingerprint(ctx context.Context, fingerprint []byte) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, orgID, userID core.ID) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id core.ID) error
	DeleteAPIKey(ctx context.Context, orgID, id core.ID) error
}
