package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAnalysisUnavailable is returned when no reasoning service is configured
	// or the call to it failed. Callers switch to their heuristic fallback.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	// ErrMalformedOutput marks model output that is not JSON or violates its schema.
	ErrMalformedOutput = errors.New("malformed model output")
)

// TransientError represents a temporary service error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as retryable.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation found in a model response.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s output failed validation", ve.Schema)
	for i, err := range ve.Errors {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %s", err.Field, err.Message)
	}
	return sb.String()
}

func (ve *ValidationError) Unwrap() error {
	return ErrMalformedOutput
}

// unavailable wraps cause so that it matches both ErrAnalysisUnavailable and cause.
func unavailable(cause error) error {
	if cause == nil {
		return ErrAnalysisUnavailable
	}
	return fmt.Errorf("%w: %w", ErrAnalysisUnavailable, cause)
}
