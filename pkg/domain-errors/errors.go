// Package domainerrors carries coded business errors across layers.
//
// Services return *Error values so callers can branch on Code without string
// matching. Infrastructure facts (not found, conflict) come from
// pkg/platform/sentinel and are translated into codes at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation is malformed input: unknown enum, bad number, missing field.
	CodeValidation Code = "validation"
	// CodeNotFound means a referenced policy, submission or owner does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidStateTransition means the stored status does not allow the transition.
	CodeInvalidStateTransition Code = "invalid_state_transition"
	// CodeInvariantViolation is raised by model constructors; services convert it to CodeValidation.
	CodeInvariantViolation Code = "invariant_violation"
	// CodePreconditionFailed means the record exists but is not usable for the request,
	// e.g. a certificate download on a frozen or expired policy.
	CodePreconditionFailed Code = "precondition_failed"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeGatewayFailure     Code = "gateway_failure"
	CodeGatewayTimeout     Code = "gateway_timeout"
	CodeInternal           Code = "internal"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is an alias of HasCode kept for handler call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
