package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrGraphNotFound is returned when the requested graph is not in the catalog.
	ErrGraphNotFound = fmt.Errorf("graph %w", ErrNotFound)
	// ErrInvalidGraph is returned when a graph exists but can't be used by the algorithm.
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrGraph is returned when the graph storage layer fails.
	ErrGraph = errors.New("graph error")
	// ErrExecution is returned when an algorithm fails while computing.
	ErrExecution = errors.New("execution failed")
	// ErrTerminated is returned when a job stops because its termination flag was raised.
	// Callers should treat it as "stopped", not as a crash.
	ErrTerminated = errors.New("the execution has been terminated")
	// ErrInsufficientMemory is returned when the estimated memory of a job exceeds the allowed limit.
	ErrInsufficientMemory = errors.New("insufficient memory")
)

// ConfigError is returned when a user supplied parameter fails validation.
type ConfigError struct {
	Parameter string
	Reason    string
}

// NewConfigError returns a new ConfigError for a parameter.
func NewConfigError(parameter, format string, args ...any) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Parameter, e.Reason)
}

// Unwrap makes the config errors match ErrNotValid.
func (e *ConfigError) Unwrap() error { return ErrNotValid }
