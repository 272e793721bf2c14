package core

import "fmt"

// Error is a domain failure carrying a machine readable code.
type Error struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func NewError(err error, code string, details map[string]any) *Error {
	msg := code
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Message: msg,
		Code:    code,
		Details: details,
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsMap renders the error for JSON payloads.
func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	out := map[string]any{
		"message": e.Message,
		"code":    e.Code,
	}
	if len(e.Details) > 0 {
		out["details"] = e.Details
	}
	return out
}
