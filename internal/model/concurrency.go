package model

import "fmt"

// Concurrency is the requested parallelism of a job, always a positive number.
type Concurrency struct {
	value int
}

// DefaultConcurrency is the concurrency used when none is configured.
var DefaultConcurrency = Concurrency{value: 4}

// NewConcurrency returns a new validated concurrency.
func NewConcurrency(value int) (Concurrency, error) {
	if value < 1 {
		return Concurrency{}, NewConfigError("concurrency", "must be at least 1, got: %d", value)
	}
	return Concurrency{value: value}, nil
}

// MustConcurrency is like NewConcurrency but panics on invalid values.
func MustConcurrency(value int) Concurrency {
	c, err := NewConcurrency(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns the number of workers.
func (c Concurrency) Value() int {
	// Zero value means not set, act as sequential.
	if c.value < 1 {
		return 1
	}
	return c.value
}

func (c Concurrency) String() string { return fmt.Sprintf("%d", c.Value()) }
