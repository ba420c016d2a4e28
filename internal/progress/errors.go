package progress

import (
	"errors"
	"fmt"
)

// Code classifies engine failures for callers. All codes are terminal from
// the engine's point of view; retries, if any, belong to the caller.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidInput       Code = "invalid_input"
	CodeTimeLimitExceeded  Code = "time_limit_exceeded"
	CodeAlreadyIssued      Code = "already_issued"
	CodePreconditionFailed Code = "precondition_failed"
	CodeUnavailable        Code = "unavailable"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the engine code from err, or "" for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
