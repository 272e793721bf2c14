package document

import (
	"errors"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

var (
	ErrNotFound        = fmt.Errorf("document %w", core.ErrNotFound)
	ErrObjectMissing   = core.NewError(errors.New("uploaded object not found in storage"), core.CodeConflict, nil)
	ErrNotUploaded     = core.NewError(errors.New("document has not been uploaded yet"), core.CodeConflict, nil)
	ErrAlreadyUploaded = core.NewError(errors.New("document is already uploaded"), core.CodeConflict, nil)
	ErrTooLarge        = core.Invalid("file", "file exceeds the maximum upload size")
	ErrTypeNotAllowed  = core.Invalid("file", "content type is not allowed")
)
