package verification

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrNotFound     = fmt.Errorf("verification %w", core.ErrNotFound)
	ErrActiveExists = core.NewError(errors.New("an active verification of this type already exists"), core.CodeConflict, nil)
	ErrInvalidAgent = core.Invalid("agent_id", "agent must be an active user allowed to perform verifications")
	ErrNotAssignee  = core.NewError(errors.New("only the assigned agent or a reviewer may submit"), core.CodeForbidden, nil)
)

// WrongStatus reports an operation attempted in a status that does not allow it.
func WrongStatus(have Status, want ...Status) error {
	return core.NewError(
		fmt.Errorf("verification is %s, expected %v", have, want),
		core.CodeInvalidTransition,
		map[string]any{"status": string(have)},
	)
}
