package core

import "errors"

// Error codes shared by every domain. The HTTP layer maps them to statuses.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodePaymentRequired     = "PAYMENT_REQUIRED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeLimitExceeded       = "LIMIT_EXCEEDED"
	CodeLocked              = "LOCKED"
	CodeAlreadyBootstrapped = "ALREADY_BOOTSTRAPPED"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

// Kind sentinels. Domain errors wrap one of these so callers can branch on
// the category without knowing the concrete error.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrPaymentRequired = errors.New("payment required")
)

var kindByCode = map[string]error{
	CodeInvalidInput:        ErrInvalidInput,
	CodeNotFound:            ErrNotFound,
	CodeConflict:            ErrConflict,
	CodeUnauthorized:        ErrUnauthorized,
	CodeForbidden:           ErrForbidden,
	CodePaymentRequired:     ErrPaymentRequired,
	CodeInvalidTransition:   ErrConflict,
	CodeLimitExceeded:       ErrConflict,
	CodeLocked:              ErrConflict,
	CodeAlreadyBootstrapped: ErrConflict,
}

// Is lets errors.Is(err, core.ErrNotFound) match a coded error.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	kind, ok := kindByCode[e.Code]
	return ok && kind == target
}

// Invalid builds an INVALID_INPUT error for a single field.
func Invalid(field, reason string) *Error {
	return &Error{
		Message: field + ": " + reason,
		Code:    CodeInvalidInput,
		Details: map[string]any{"field": field, "reason": reason},
	}
}
