package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrCatalogNotFound = fmt.Errorf("%w: catalog", ErrNotFound)

	// Validation errors
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidProbability = errors.New("invalid probability")
	ErrInvalidSweep       = errors.New("invalid sweep range")

	// Configuration errors
	ErrConfigMismatch    = errors.New("probability and prior tables disagree")
	ErrPriorSum          = errors.New("priors do not sum to 1")
	ErrEmptyCatalog      = errors.New("catalog has no settings")
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)

// Error constructors with context
func NewObservationError(trials, successes int, reason string) error {
	return fmt.Errorf("%w: trials=%d successes=%d: %s", ErrInvalidObservation, trials, successes, reason)
}

func NewProbabilityError(table, label string, value float64) error {
	return fmt.Errorf("%w: %s[%s] = %v", ErrInvalidProbability, table, label, value)
}

func NewMismatchError(label, missingFrom string) error {
	return fmt.Errorf("%w: setting %s has no entry in %s", ErrConfigMismatch, label, missingFrom)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidObservation) ||
		errors.Is(err, ErrInvalidSweep)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigMismatch) ||
		errors.Is(err, ErrPriorSum) ||
		errors.Is(err, ErrInvalidProbability) ||
		errors.Is(err, ErrEmptyCatalog) ||
		errors.Is(err, ErrUnsupportedFormat)
}
