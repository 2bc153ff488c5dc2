package model

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing job, draft, version, or criterion.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict indicates a version-number collision while writing a
// report version. The version manager retries these; callers only see one
// if retries are exhausted.
var ErrVersionConflict = errors.New("version number conflict")

// ValidationError describes a malformed or empty input payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
