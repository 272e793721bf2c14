// Package userctx carries the authenticated lendflow user through a request
// context. Every tenant-scoped query reads the organization from here.
package userctx

import (
	"context"
	"errors"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
)

type userKey struct{}

// ErrNoUser is returned by Actor when the auth middleware did not run.
var ErrNoUser = core.NewError(errors.New("authentication required"), core.CodeUnauthorized, nil)

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext reports false for a missing or nil user.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey{}).(*model.User)
	return user, ok && user != nil
}

// Actor is UserFromContext for callers that propagate errors.
func Actor(ctx context.Context) (*model.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, ErrNoUser
	}
	return user, nil
}

// OrgID returns the tenant of the authenticated user.
func OrgID(ctx context.Context) (core.ID, bool) {
	user, ok := UserFromContext(ctx)
	if !ok || user.OrgID.IsZero() {
		return "", false
	}
	return user.OrgID, true
}
