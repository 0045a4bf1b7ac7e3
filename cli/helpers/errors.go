package helpers

import (
	"errors"
	"fmt"
)

// Define sentinel errors for common error types
var (
	// ErrFindings is returned when lint found issues at or above the fail-on severity
	ErrFindings = errors.New("lint findings")

	// ErrTimeout represents a timeout error
	ErrTimeout = errors.New("operation timed out")
)

// FindingsError reports how many issues crossed the fail-on threshold
type FindingsError struct {
	Count     int
	Threshold string
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("%d %s at or above %s", e.Count, Pluralize(e.Count, "issue", "issues"), e.Threshold)
}

func (e *FindingsError) Is(target error) bool {
	return target == ErrFindings
}

// TimeoutError represents a timeout error with additional context
type TimeoutError struct {
	Operation string
	Duration  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s timed out after %s", e.Operation, e.Duration)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(operation, duration string) error {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
	}
}
