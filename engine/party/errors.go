package party

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrNotFound     = fmt.Errorf("party %w", core.ErrNotFound)
	ErrDuplicatePAN = core.NewError(
		errors.New("PAN is already used by the applicant or another party on this application"),
		core.CodeConflict,
		nil,
	)
	ErrLocked = core.NewError(
		errors.New("parties cannot change once the application is decided"),
		core.CodeLocked,
		nil,
	)
)

// LimitExceeded reports that an application already has the maximum parties of kind.
func LimitExceeded(kind Kind) error {
	return core.NewError(
		fmt.Errorf("an application may have at most %d %s parties", kind.Limit(), kind),
		core.CodeLimitExceeded,
		map[string]any{"kind": string(kind), "limit": kind.Limit()},
	)
}
