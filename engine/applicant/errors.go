package applicant

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrNotFound        = fmt.Errorf("applicant %w", core.ErrNotFound)
	ErrPANExists       = core.NewError(errors.New("an applicant with this PAN already exists"), core.CodeConflict, nil)
	ErrHasApplications = core.NewError(errors.New("applicant has loan applications"), core.CodeConflict, nil)
	ErrUnderage        = core.Invalid("date_of_birth", "applicant must be at least 18 years old")
	ErrInvalidAadhaar  = core.Invalid("aadhaar", "expected the last 4 or all 12 digits")
)
