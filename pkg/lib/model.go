package lib

import (
	"errors"
	"slices"
	"time"

	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
)

var (
	// ErrNotFound is returned when a graph, an algorithm or a job doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource with the same name already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input, including invalid algorithm parameters.
	ErrNotValid = errors.New("not valid")
	// ErrTerminated is returned when an execution is stopped before finishing.
	ErrTerminated = errors.New("terminated")
	// ErrInsufficientMemory is returned when an execution is estimated to need
	// more memory than [Config].MemoryLimit.
	ErrInsufficientMemory = errors.New("insufficient memory")
)

// ExecutionMode is how the result of an algorithm is returned.
type ExecutionMode string

const (
	// ExecutionModeStream returns one row per node.
	ExecutionModeStream ExecutionMode = "stream"
	// ExecutionModeStats returns an aggregated summary.
	ExecutionModeStats ExecutionMode = "stats"
	// ExecutionModeMutate stores the result as a property of the loaded graph.
	ExecutionModeMutate ExecutionMode = "mutate"
	// ExecutionModeWrite stores the result like mutate does.
	ExecutionModeWrite ExecutionMode = "write"
)

// Graph is an inline graph. Nodes are identified by their index.
type Graph struct {
	// Name identifies the graph in the client catalog.
	Name string
	// NodeCount is the number of nodes, when 0 it's inferred from the relationships.
	NodeCount int64
	// Relationships are the directed source and target node pairs.
	Relationships [][2]int64
	// Properties are node properties, one value per node.
	Properties map[string][]float64
}

// Timings are the execution phase durations in milliseconds.
type Timings struct {
	PreProcessingMillis int64
	ComputeMillis       int64
	SideEffectMillis    int64
}

// RunResult is the result of an algorithm execution.
type RunResult struct {
	Algorithm string
	Username  string
	JobID     string
	Mode      ExecutionMode
	Timings   Timings
	// Rows are the per node results, only on stream mode.
	Rows []any
	// Summary is the result of the non stream modes, its type depends on the
	// algorithm and the mode.
	Summary any
}

// MemoryRange is an estimated memory usage in bytes.
type MemoryRange struct {
	Min int64
	Max int64
	// Human is the human readable range.
	Human string
}

// Estimation is the memory estimation of an algorithm execution.
type Estimation struct {
	Algorithm     string
	Nodes         int64
	Relationships int64
	// Estimated is false when the algorithm can't estimate its memory.
	Estimated bool
	Memory    MemoryRange
	// Breakdown is the rendered memory tree.
	Breakdown string
	// Admitted is false when the execution would be rejected by the memory limit.
	Admitted bool
	Reason   string
}

// JobStatus is the state of a running job.
type JobStatus string

// Job is a snapshot of a running job.
type Job struct {
	Username    string
	JobID       string
	Description string
	Status      JobStatus
	// Progress is the logged work, Volume is -1 when the total work is unknown.
	Progress  int64
	Volume    int64
	StartTime time.Time
	// Tree is the rendered task tree of the job.
	Tree string
}

// JobEventType is the kind of job event.
type JobEventType string

const (
	// JobEventAdded is recorded when a job starts.
	JobEventAdded JobEventType = "added"
	// JobEventRemoved is recorded when a job finishes.
	JobEventRemoved JobEventType = "removed"
	// JobEventCleared is recorded when all the jobs are removed at once.
	JobEventCleared JobEventType = "cleared"
)

// JobEvent is a recorded change of the running jobs.
type JobEvent struct {
	ID          string
	Type        JobEventType
	Username    string
	JobID       string
	Description string
	Status      JobStatus
	Progress    int64
	Volume      int64
	CreatedAt   time.Time
}

func toInternalGraphSource(g Graph) model.GraphSource {
	return model.GraphSource{
		Name:          g.Name,
		NodeCount:     g.NodeCount,
		Relationships: g.Relationships,
		Properties:    g.Properties,
	}
}

func fromInternalRunResult(r run.Result) RunResult {
	res := RunResult{
		Algorithm: r.Algorithm,
		Username:  r.Username,
		JobID:     r.JobID.String(),
		Mode:      ExecutionMode(r.Output.Mode),
		Timings: Timings{
			PreProcessingMillis: r.Output.Timings.PreProcessingMillis,
			ComputeMillis:       r.Output.Timings.ComputeMillis,
			SideEffectMillis:    r.Output.Timings.SideEffectMillis,
		},
		Summary: r.Output.Summary,
	}
	if r.Output.Rows != nil {
		res.Rows = slices.Collect(r.Output.Rows)
	}
	return res
}

func fromInternalEstimation(r estimate.Result) Estimation {
	usage := r.Tree.MemoryUsage()
	return Estimation{
		Algorithm:     r.Algorithm,
		Nodes:         r.Nodes,
		Relationships: r.Relationships,
		Estimated:     r.Tree.Estimated(),
		Memory: MemoryRange{
			Min:   usage.Min(),
			Max:   usage.Max(),
			Human: usage.String(),
		},
		Breakdown: r.Tree.Render(),
		Admitted:  r.Admitted,
		Reason:    r.Reason,
	}
}

func fromInternalJobs(js []jobs.Job) []Job {
	res := make([]Job, 0, len(js))
	for _, j := range js {
		res = append(res, Job{
			Username:    j.Username,
			JobID:       j.JobID.String(),
			Description: j.Description,
			Status:      JobStatus(j.Status),
			Progress:    j.Progress.Progress,
			Volume:      j.Progress.Volume,
			StartTime:   j.StartTime,
			Tree:        j.Tree,
		})
	}
	return res
}

func fromInternalJobEvents(events []storage.JobEvent) []JobEvent {
	res := make([]JobEvent, 0, len(events))
	for _, e := range events {
		res = append(res, JobEvent{
			ID:          e.ID,
			Type:        JobEventType(e.Type),
			Username:    e.Username,
			JobID:       e.JobID.String(),
			Description: e.Description,
			Status:      JobStatus(e.Status),
			Progress:    e.Progress,
			Volume:      e.Volume,
			CreatedAt:   e.CreatedAt,
		})
	}
	return res
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrInsufficientMemory):
		return joinErrors(err, ErrInsufficientMemory)
	case errors.Is(err, model.ErrTerminated):
		return joinErrors(err, ErrTerminated)
	case errors.Is(err, model.ErrNotValid), errors.Is(err, model.ErrInvalidGraph):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
