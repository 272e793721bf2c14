package loan

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrApplicationNotFound  = fmt.Errorf("loan application %w", core.ErrNotFound)
	ErrConfirmationNotFound = fmt.Errorf("loan confirmation %w", core.ErrNotFound)
	ErrNumberExists         = core.NewError(errors.New("application number already taken"), core.CodeConflict, nil)
	ErrNotEditable          = core.NewError(
		errors.New("application can only be edited while draft, submitted or on hold"),
		core.CodeInvalidTransition,
		nil,
	)
	ErrNotConfirmable = core.NewError(
		errors.New("application must be under review or on hold to be confirmed"),
		core.CodeInvalidTransition,
		nil,
	)
	ErrInvalidAssignee = core.Invalid("user_id", "assignee must be an active credit officer or manager")
	ErrAmountTooHigh   = core.Invalid("approved_amount", "must not exceed the requested amount")
)
