// Package validation holds input size limits and a collector for field-level
// violations, so request schemas report every problem in one pass.
package validation

import (
	dErrors "clientele/pkg/domain-errors"
)

// Size limits for client records.
const (
	MinNameLength         = 3
	MaxNameLength         = 100
	MaxEmailLength        = 200
	MaxStreetLength       = 200
	MaxNumberLength       = 20
	MaxComplementLength   = 100
	MaxNeighborhoodLength = 100
	MaxCityLength         = 100
	StateLength           = 2
	MaxPostalCodeLength   = 10

	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Errors accumulates field violations in the order they were found.
type Errors struct {
	fields []dErrors.FieldError
}

// Add records a violation for path.
func (e *Errors) Add(path, msg string) {
	e.fields = append(e.fields, dErrors.FieldError{Path: path, Message: msg})
}

// AddIf records a violation when cond is true and reports whether it did.
func (e *Errors) AddIf(cond bool, path, msg string) bool {
	if cond {
		e.Add(path, msg)
	}
	return cond
}

// Has reports whether path already has a violation.
func (e *Errors) Has(path string) bool {
	for _, f := range e.fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Empty reports whether no violations were recorded.
func (e *Errors) Empty() bool {
	return len(e.fields) == 0
}

// Fields returns a copy of the collected violations.
func (e *Errors) Fields() []dErrors.FieldError {
	return append([]dErrors.FieldError(nil), e.fields...)
}

// Err returns a validation *Error, or nil when nothing was recorded.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return dErrors.NewValidation(e.Fields())
}
