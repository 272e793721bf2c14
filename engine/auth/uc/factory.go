package uc

import (
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

// Factory builds auth use cases sharing one repository and key settings.
type Factory struct {
	repo      Repository
	keyPrefix string
	verifier  *TokenVerifier
}

func NewFactory(repo Repository, keyPrefix string, verifier *TokenVerifier) *Factory {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Factory{repo: repo, keyPrefix: keyPrefix, verifier: verifier}
}

func (f *Factory) Repository() Repository { return f.repo }

func (f *Factory) KeyPrefix() string { return f.keyPrefix }

func (f *Factory) BootstrapOrganization(input *BootstrapInput) *BootstrapOrganization {
	return NewBootstrapOrganization(f.repo, f.keyPrefix, input)
}

func (f *Factory) GetOrganization(orgID core.ID) *GetOrganization {
	return NewGetOrganization(f.repo, orgID)
}

func (f *Factory) CreateUser(orgID core.ID, input *CreateUserInput) *CreateUser {
	return NewCreateUser(f.repo, orgID, input)
}

func (f *Factory) GetUser(orgID, userID core.ID) *GetUser {
	return NewGetUser(f.repo, orgID, userID)
}

func (f *Factory) ListUsers(orgID core.ID, page core.Page) *ListUsers {
	return NewListUsers(f.repo, orgID, page)
}

func (f *Factory) UpdateUser(actor *model.User, userID core.ID, input *UpdateUserInput) *UpdateUser {
	return NewUpdateUser(f.repo, actor, userID, input)
}

func (f *Factory) DeleteUser(actor *model.User, userID core.ID) *DeleteUser {
	return NewDeleteUser(f.repo, actor, userID)
}

func (f *Factory) GenerateAPIKey(user *model.User) *GenerateAPIKey {
	return NewGenerateAPIKey(f.repo, user, f.keyPrefix)
}

func (f *Factory) ListAPIKeys(user *model.User) *ListAPIKeys {
	return NewListAPIKeys(f.repo, user)
}

func (f *Factory) RevokeAPIKey(actor *model.User, keyID core.ID) *RevokeAPIKey {
	return NewRevokeAPIKey(f.repo, actor, keyID)
}

func (f *Factory) ValidateAPIKey(plaintext string) *ValidateAPIKey {
	return NewValidateAPIKey(f.repo, plaintext)
}

func (f *Factory) AuthenticateToken(token string) *AuthenticateToken {
	return NewAuthenticateToken(f.repo, f.verifier, token)
}

func (f *Factory) LinkAuthSubject(email, subject string) *LinkAuthSubject {
	return NewLinkAuthSubject(f.repo, email, subject)
}
