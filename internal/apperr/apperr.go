// Package apperr is the error taxonomy shared by the stores, the conversation
// service and the transports.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for transports. Each code maps to one HTTP
// status and one socket error policy.
type Code string

// Error codes.

const (
	CodeValidation    Code = "VALIDATION"
	CodeNotAuthorized Code = "NOT_AUTHORIZED"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStore         Code = "STORE"
	CodeInternal      Code = "INTERNAL"
)

// Error carries a Code, a client-safe Reason and an optional cause.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code, so errors.Is(err, apperr.NotFound(""))
// style checks work without comparing reasons.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New returns an *Error with the given code, client-safe reason and cause.
func New(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Validation reports malformed or out-of-range input.
func Validation(reason string) *Error {
	return New(CodeValidation, reason, nil)
}

// NotAuthorized reports a caller whose role or state forbids the operation.
func NotAuthorized(reason string) *Error {
	return New(CodeNotAuthorized, reason, nil)
}

// NotFound reports a missing thread, user or other record.
func NotFound(reason string) *Error {
	return New(CodeNotFound, reason, nil)
}

// Conflict reports a write that clashes with existing state.
func Conflict(reason string) *Error {
	return New(CodeConflict, reason, nil)
}

// Store wraps a persistence failure. A nil err returns nil, and an err that
// already carries a code is returned unchanged.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return New(CodeStore, op, err)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ReasonOf returns the client-safe reason of err, or fallback when err is not
// an *Error.
func ReasonOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return fallback
}
