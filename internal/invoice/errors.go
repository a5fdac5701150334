package invoice

import (
	"errors"
	"fmt"
)

// Extraction errors
var (
	// ErrFieldNotFound is returned when every variant of a field's cascade failed to match.
	// Extract never surfaces it: a missing field is reported as absent.
	ErrFieldNotFound = errors.New("field not found in transcript")

	// ErrNormalizationFailed is returned when a matched numeric substring cannot be parsed
	// as a decimal value.
	ErrNormalizationFailed = errors.New("numeric normalization failed")

	// ErrExtractionAborted is returned when the transcript is empty or contains only whitespace.
	// It is the only error that stops an extraction.
	ErrExtractionAborted = errors.New("extraction aborted: transcript is empty")

	// ErrInvalidPatterns is returned when a pattern table cannot be loaded or compiled.
	ErrInvalidPatterns = errors.New("invalid pattern configuration")
)

// ExtractionError wraps errors with additional context about the extraction step that failed.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Normalize", "ParsePatterns").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError with the specified operation and underlying error.
func NewExtractionError(op string, err error, details string) *ExtractionError {
	return &ExtractionError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err // Already wrapped
	}

	return NewExtractionError(op, err, details)
}
