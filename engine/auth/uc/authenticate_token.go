package uc

import (
	"context"
	"errors"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/pkg/logger"
)

// AuthenticateToken resolves an identity provider JWT to a user. A subject
// seen for the first time is linked through the token's email claim.
type AuthenticateToken struct {
	repo     Repository
	verifier *TokenVerifier
	token    string
}

func NewAuthenticateToken(repo Repository, verifier *TokenVerifier, token string) *AuthenticateToken {
	return &AuthenticateToken{repo: repo, verifier: verifier, token: token}
}

func (uc *AuthenticateToken) Execute(ctx context.Context) (*model.User, error) {
	claims, err := uc.verifier.Verify(uc.token)
	if err != nil {
		return nil, err
	}
	user, err := uc.repo.GetUserByAuthSubject(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if claims.Email == "" {
		logger.FromContext(ctx).Debug("Token subject is not linked and carries no email")
		return nil, ErrAccountNotLinked
	}
	return NewLinkAuthSubject(uc.repo, claims.Email, claims.Subject).Execute(ctx)
}
