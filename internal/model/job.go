package model

import (
	"github.com/oklog/ulid/v2"
)

// JobID identifies a single tracked invocation of an algorithm.
type JobID string

// NewJobID returns a new unique job ID.
func NewJobID() JobID {
	return JobID(ulid.Make().String())
}

func (j JobID) String() string { return string(j) }
