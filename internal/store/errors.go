package store

import (
	"errors"
	"fmt"

	"github.com/roach88/slipstream/internal/settings"
)

var (
	// ErrNotFound is returned by Get when no record exists for the pair.
	ErrNotFound = errors.New("layout record not found")

	// ErrUnavailable wraps storage failures: I/O, corruption, cancellation.
	ErrUnavailable = errors.New("layout store unavailable")

	// ErrValidation is settings.ErrInvalid, re-exported so callers can test
	// store errors without importing settings.
	ErrValidation = settings.ErrInvalid
)

// unavailable wraps a storage failure for operation op.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// IsNotFound reports whether err is the absent-record case.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err rejects caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether err is a storage failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
