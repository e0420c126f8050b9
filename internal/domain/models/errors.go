package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed requests: empty dataset, unsupported column.
	ErrInvalidInput = errors.New("invalid input")
	// ErrColumnNotFound is an InvalidInput for a target column the dataset lacks.
	ErrColumnNotFound = fmt.Errorf("%w: column not found", ErrInvalidInput)
	// ErrUnknownModel is an InvalidInput for an unregistered model kind.
	ErrUnknownModel = fmt.Errorf("%w: unknown model kind", ErrInvalidInput)

	ErrInsufficientData      = errors.New("insufficient data")
	ErrInsufficientSequences = errors.New("insufficient sequences")

	// ErrUpstreamUnavailable marks an expected provider miss; the cascade moves on.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNoDataAvailable is returned only when even the synthetic stage has no rows.
	ErrNoDataAvailable = errors.New("no data available")
	// ErrModelFailure is absorbed into the degraded forecast path.
	ErrModelFailure = errors.New("model failure")
)

// InsufficientDataError reports a dataset too short for one window plus margin.
type InsufficientDataError struct {
	Rows     int
	Required int
	Window   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows, need at least %d for window %d", e.Rows, e.Required, e.Window)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// InsufficientSequencesError reports too few train or test windows.
type InsufficientSequencesError struct {
	Train    int
	Test     int
	MinTrain int
	MinTest  int
}

func (e *InsufficientSequencesError) Error() string {
	return fmt.Sprintf("insufficient sequences: train=%d (min %d) test=%d (min %d)", e.Train, e.MinTrain, e.Test, e.MinTest)
}

func (e *InsufficientSequencesError) Is(target error) bool { return target == ErrInsufficientSequences }

// Unavailable wraps a provider failure as an expected cascade miss.
func Unavailable(provider string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", provider, ErrUpstreamUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", provider, ErrUpstreamUnavailable, cause)
}

// ColumnNotFound builds an ErrColumnNotFound naming the column.
func ColumnNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}
