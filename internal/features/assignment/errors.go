package assignment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned for unknown assignment ids.
var ErrNotFound = errors.New("role assignment not found")

// ValidationError marks malformed caller input (bad ordering, malformed
// dates). Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ConversionError marks a Hijri value outside the calendar's representable
// or valid range.
type ConversionError struct {
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert hijri date %q: %v", e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConflictError reports existing active assignments whose intervals overlap
// the candidate. Requires human resolution, never retried.
type ConflictError struct {
	ConflictingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user already has an overlapping assignment for this role: %s",
		strings.Join(e.ConflictingIDs, ", "))
}

// IsValidation reports whether err is terminal caller-input trouble.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ce *ConversionError
	return errors.As(err, &ve) || errors.As(err, &ce)
}

// IsConflict reports whether err is an interval conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
