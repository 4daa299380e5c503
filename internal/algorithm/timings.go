package algorithm

import "time"

// Timings are the elapsed times of the processing phases of an execution.
type Timings struct {
	PreProcessingMillis int64 `json:"preProcessingMillis" yaml:"preProcessingMillis"`
	ComputeMillis       int64 `json:"computeMillis" yaml:"computeMillis"`
	SideEffectMillis    int64 `json:"sideEffectMillis" yaml:"sideEffectMillis"`
}

type stopwatch struct {
	now   func() time.Time
	start time.Time
}

func startStopwatch(now func() time.Time) stopwatch {
	return stopwatch{now: now, start: now()}
}

func (s stopwatch) millis() int64 { return s.now().Sub(s.start).Milliseconds() }
