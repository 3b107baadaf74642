// Package apperrors is the typed error-kind taxonomy every component raises
// through. Each Kind has a fixed retry and user-facing behavior; the
// dispatcher is the single place that maps a Kind to a terminal execution
// status and a progress-channel failure event.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error origins the dispatcher understands.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindAuth             Kind = "AuthError"
	KindBudgetExhausted  Kind = "BudgetExhausted"
	KindNoAccountAvail   Kind = "NoAccountAvailable"
	KindRateLimited      Kind = "RateLimited"
	KindProviderTransient Kind = "ProviderTransient"
	KindToolError        Kind = "ToolError"
	KindDeadlineExceeded Kind = "DeadlineExceeded"
	KindInternal         Kind = "InternalError"
)

// Retryable reports whether the Account Pool should retry internally with a
// different account rather than surface the error immediately.
func (k Kind) Retryable() bool {
	return k == KindProviderTransient
}

// Error is the typed error carried end to end from origin to the dispatcher.
// CorrelationID is attached once, at creation, and surfaces in every
// user-facing message for support lookup.
type Error struct {
	Kind          Kind
	Message       string
	CorrelationID string
	Cause         error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a typed Error with no wrapped cause.
func New(kind Kind, correlationID, message string) *Error {
	return &Error{Kind: kind, Message: message, CorrelationID: correlationID}
}

// Wrap attaches a Kind and correlation id to an existing error.
func Wrap(kind Kind, correlationID string, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), CorrelationID: correlationID, Cause: cause}
}

// As extracts the typed Error from err, if present anywhere in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it (or something it wraps) is a typed
// Error, and KindInternal otherwise — every unclassified error is internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// ValidationError is a field-specific input validation failure, reported
// before any OrchestratorExecution row is created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// NewValidation builds a typed Error wrapping a field-specific ValidationError.
func NewValidation(correlationID, field, message string) *Error {
	return Wrap(KindValidation, correlationID, &ValidationError{Field: field, Message: message})
}
