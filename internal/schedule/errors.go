package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by queries made before the first
	// successful Reconfigure.
	ErrNotInitialized = errors.New("prayer calculator not initialized")
	// ErrInvalidCoordinates rejects latitudes or longitudes out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// CalculationError wraps a backend failure for one date.
type CalculationError struct {
	Date string
	Err  error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("failed to calculate prayer times for %s: %v", e.Date, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// TimezoneError reports an identifier that could not be loaded.
type TimezoneError struct {
	Name string
	Err  error
}

func (e *TimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: %v", e.Name, e.Err)
}

func (e *TimezoneError) Unwrap() error { return e.Err }
