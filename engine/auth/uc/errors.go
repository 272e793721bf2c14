package uc

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", core.ErrNotFound)
	ErrOrgNotFound         = fmt.Errorf("organization %w", core.ErrNotFound)
	ErrAPIKeyNotFound      = fmt.Errorf("API key %w", core.ErrNotFound)
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
	ErrEmailExists         = core.NewError(errors.New("email already exists"), core.CodeConflict, nil)
	ErrLastOwner           = core.NewError(errors.New("organization must keep at least one owner"), core.CodeConflict, nil)
	ErrSelfModification    = core.NewError(errors.New("users cannot change their own role or status"), core.CodeForbidden, nil)
	ErrAlreadyBootstrapped = core.NewError(errors.New("an organization already exists"), core.CodeAlreadyBootstrapped, nil)
	ErrUserDisabled        = core.NewError(errors.New("user is disabled"), core.CodeUnauthorized, nil)
	ErrOrgSuspended        = core.NewError(errors.New("organization is suspended"), core.CodeForbidden, nil)
	ErrAccountNotLinked    = core.NewError(errors.New("no unique account matches this identity"), core.CodeUnauthorized, nil)
)
