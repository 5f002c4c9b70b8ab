// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Detection errors.
	ErrNoTransactions  = errors.New("no transactions to analyze")
	ErrDetectionFailed = errors.New("detection failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FeatureExtractionError indicates malformed or insufficient input to the
// feature extractor. It is never retried; the caller must fix the input.
type FeatureExtractionError struct {
	Reason string
}

func (e *FeatureExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed: %s", e.Reason)
}

// NewFeatureExtractionError creates a FeatureExtractionError with a reason.
func NewFeatureExtractionError(format string, args ...any) error {
	return &FeatureExtractionError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError indicates an illegal pattern lifecycle action. It is
// always surfaced and never silently coerced.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ValidationInconsistencyError indicates an internal invariant violation
// during criteria validation, e.g. a pattern referencing transactions absent
// from the supplied universe. The validator degrades to best effort using the
// subset it found; this error carries the details for logging.
type ValidationInconsistencyError struct {
	PatternID  string
	MissingIDs []string
}

func (e *ValidationInconsistencyError) Error() string {
	return fmt.Sprintf("pattern %s references %d transactions absent from the supplied universe",
		e.PatternID, len(e.MissingIDs))
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	var featureErr *FeatureExtractionError
	var transitionErr *InvalidTransitionError
	if errors.As(err, &featureErr) || errors.As(err, &transitionErr) {
		return false
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
