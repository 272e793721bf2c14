package uc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/pkg/logger"
)

// LinkAuthSubject binds an identity provider subject to the single unlinked
// user with the given email.
type LinkAuthSubject struct {
	repo    Repository
	email   string
	subject string
}

func NewLinkAuthSubject(repo Repository, email, subject string) *LinkAuthSubject {
	return &LinkAuthSubject{repo: repo, email: email, subject: subject}
}

func (uc *LinkAuthSubject) Execute(ctx context.Context) (*model.User, error) {
	email, err := normalizeEmail(uc.email)
	if err != nil {
		return nil, ErrAccountNotLinked
	}
	candidates, err := uc.repo.ListUnlinkedUsersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up users by email: %w", err)
	}
	if len(candidates) != 1 {
		logger.FromContext(ctx).Debug("Cannot link identity", "matches", len(candidates))
		return nil, ErrAccountNotLinked
	}
	user := candidates[0]
	if err := uc.repo.LinkAuthSubject(ctx, user.ID, uc.subject); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrAccountNotLinked
		}
		return nil, fmt.Errorf("linking auth subject: %w", err)
	}
	subject := uc.subject
	user.AuthSubject = &subject
	logger.FromContext(ctx).Info("Linked identity to user", "org_id", user.OrgID, "user_id", user.ID)
	return user, nil
}
