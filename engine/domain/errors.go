// Package domain defines the shared error taxonomy for the passnet engine.
// Every failure that crosses a package boundary wraps one of the sentinels
// below so callers can classify it with errors.Is.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. InvalidInput and MissingParam are client faults;
// ImportFailed and QueryFailed are substrate (server) faults.
var (
	ErrInvalidInput = errors.New("invalid import payload")
	ErrMissingParam = errors.New("missing required parameter")
	ErrImportFailed = errors.New("import failed")
	ErrQueryFailed  = errors.New("aggregation query failed")
)

// ValidationError wraps a client-fault sentinel with the offending field.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// ImportError marks a materialization failure. Step names the substrate
// operation that failed; the match's derived data must be treated as
// untrusted until a later import succeeds.
type ImportError struct {
	MatchID string
	Step    string
	Cause   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: match %q: %s: %v", ErrImportFailed, e.MatchID, e.Step, e.Cause)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *ImportError) Unwrap() []error { return []error{ErrImportFailed, e.Cause} }

// NewImportError creates an ImportError.
func NewImportError(matchID, step string, cause error) *ImportError {
	return &ImportError{MatchID: matchID, Step: step, Cause: cause}
}

// QueryError marks an aggregation read failure. Reads are side-effect free,
// so a QueryError is always safe to retry.
type QueryError struct {
	MatchID string
	Query   string
	Cause   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s (match %q): %v", ErrQueryFailed, e.Query, e.MatchID, e.Cause)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *QueryError) Unwrap() []error { return []error{ErrQueryFailed, e.Cause} }

// NewQueryError creates a QueryError.
func NewQueryError(matchID, query string, cause error) *QueryError {
	return &QueryError{MatchID: matchID, Query: query, Cause: cause}
}
