package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lendflow/lendflow/engine/core"
)

// Error codes without a domain counterpart
const (
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrTooLargeCode           = "PAYLOAD_TOO_LARGE"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// RequestError represents errors that can occur during request handling
type RequestError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError
func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Reason:     reason,
		Err:        err,
	}
}

// IsRequestError checks if the given error is a RequestError
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// StatusFor maps an error to the HTTP status and code used in the problem body.
func StatusFor(err error) (int, string) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode, codeForStatus(reqErr.StatusCode)
	}
	code := ""
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		code = coreErr.Code
	}
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, orDefault(code, core.CodeInvalidInput)
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, orDefault(code, core.CodeNotFound)
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, orDefault(code, core.CodeConflict)
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, orDefault(code, core.CodeUnauthorized)
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, orDefault(code, core.CodeForbidden)
	case errors.Is(err, core.ErrPaymentRequired):
		return http.StatusPaymentRequired, orDefault(code, core.CodePaymentRequired)
	case code == core.CodeUpstream:
		return http.StatusBadGateway, code
	default:
		return http.StatusInternalServerError, core.CodeInternal
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequestCode
	case http.StatusUnauthorized:
		return core.CodeUnauthorized
	case http.StatusForbidden:
		return core.CodeForbidden
	case http.StatusNotFound:
		return core.CodeNotFound
	case http.StatusConflict:
		return core.CodeConflict
	case http.StatusPaymentRequired:
		return core.CodePaymentRequired
	case http.StatusRequestEntityTooLarge:
		return ErrTooLargeCode
	case http.StatusTooManyRequests:
		return core.CodeRateLimited
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailableCode
	default:
		return core.CodeInternal
	}
}

func orDefault(code, def string) string {
	if code == "" {
		return def
	}
	return code
}
