// Package errors defines the sentinel errors shared by every component of
// the migration tool, plus helpers for classifying them.
//
// The batch runner relies on these categories to decide whether a failure
// kills one subset, one schema file, or the whole run.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Schema decoding errors
	ErrFormatMismatch = errors.New("unrecognized schema format tag")
	ErrTruncated      = errors.New("schema data truncated")
	ErrNotProvisioned = errors.New("device not provisioned")

	// Ring buffer errors
	ErrShortRead          = errors.New("ring buffer short read")
	ErrSubsetOutOfRange   = errors.New("subset index out of range")
	ErrInvalidGeometry    = errors.New("invalid ring geometry")
	ErrSampleKindMismatch = errors.New("sample kind mismatch")

	// Lookup errors
	ErrDeviceNotFound = errors.New("device not found in registry")

	// Batch errors
	ErrNothingImportable = errors.New("nothing importable found")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingField  = errors.New("missing required field")

	// Writer state
	ErrWriterClosed = errors.New("writer is closed")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsRecoverable returns true if err only invalidates part of one schema
// file and the rest of the batch can continue.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrShortRead) ||
		errors.Is(err, ErrNotProvisioned)
}

// IsSkip returns true if err means one device or subset is skipped without
// affecting the run's overall success signal.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNotProvisioned) ||
		errors.Is(err, ErrDeviceNotFound)
}

// IsValidation returns true if err is a configuration validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrMissingField)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}
