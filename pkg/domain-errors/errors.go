// Package domainerrors defines the error taxonomy shared by services and the
// HTTP boundary. Services return *Error values; transport maps Code to a
// status and never inspects Message to decide behaviour.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for the boundary.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeRateLimited        Code = "rate_limited"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// FieldError pins a violation to a request field path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is the domain error carried from services to the boundary.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error. Field errors of a
// wrapped *Error are preserved so validation details survive re-wrapping.
func Wrap(err error, code Code, msg string) *Error {
	wrapped := &Error{Code: code, Message: msg, Err: err}
	var inner *Error
	if errors.As(err, &inner) && len(inner.Fields) > 0 {
		wrapped.Fields = append([]FieldError(nil), inner.Fields...)
	}
	return wrapped
}

// NewValidation builds a validation failure from collected field errors.
func NewValidation(fields []FieldError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// WithField returns a copy of e tagged with a single field violation.
func (e *Error) WithField(path, msg string) *Error {
	out := *e
	out.Fields = append(append([]FieldError(nil), e.Fields...), FieldError{Path: path, Message: msg})
	return &out
}

// HasCode reports whether any *Error in err's chain carries code.
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

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
