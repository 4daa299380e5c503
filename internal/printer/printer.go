package printer

import (
	"slices"
	"time"

	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/storage"
)

// Printer knows how to print galgo results in different formats.
type Printer interface {
	PrintRun(res run.Result) error
	PrintEstimate(res estimate.Result) error
	PrintJobs(js []jobs.Job) error
	PrintHistory(events []storage.JobEvent) error
	PrintMessage(msg string) error
}

// runOutput is the serialized algorithm execution.
type runOutput struct {
	Algorithm string            `json:"algorithm" yaml:"algorithm"`
	Username  string            `json:"username" yaml:"username"`
	JobID     string            `json:"jobId" yaml:"jobId"`
	Mode      string            `json:"mode" yaml:"mode"`
	Timings   algorithm.Timings `json:"timings" yaml:"timings"`
	Rows      []any             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Summary   any               `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func newRunOutput(res run.Result) runOutput {
	out := runOutput{
		Algorithm: res.Algorithm,
		Username:  res.Username,
		JobID:     res.JobID.String(),
		Mode:      string(res.Output.Mode),
		Timings:   res.Output.Timings,
		Summary:   res.Output.Summary,
	}
	if res.Output.Rows != nil {
		out.Rows = slices.Collect(res.Output.Rows)
	}
	return out
}

// treeOutput is the serialized memory tree.
type treeOutput struct {
	Description string       `json:"description" yaml:"description"`
	Estimated   bool         `json:"estimated" yaml:"estimated"`
	MinBytes    int64        `json:"minBytes" yaml:"minBytes"`
	MaxBytes    int64        `json:"maxBytes" yaml:"maxBytes"`
	Memory      string       `json:"memory" yaml:"memory"`
	Components  []treeOutput `json:"components,omitempty" yaml:"components,omitempty"`
}

func newTreeOutput(t memory.Tree) treeOutput {
	out := treeOutput{
		Description: t.Description(),
		Estimated:   t.Estimated(),
		MinBytes:    t.MemoryUsage().Min(),
		MaxBytes:    t.MemoryUsage().Max(),
		Memory:      t.MemoryUsage().String(),
	}
	for _, c := range t.Components() {
		out.Components = append(out.Components, newTreeOutput(c))
	}
	return out
}

// estimateOutput is the serialized estimation.
type estimateOutput struct {
	Algorithm     string     `json:"algorithm" yaml:"algorithm"`
	Nodes         int64      `json:"nodes" yaml:"nodes"`
	Relationships int64      `json:"relationships" yaml:"relationships"`
	MemoryLimit   int64      `json:"memoryLimit,omitempty" yaml:"memoryLimit,omitempty"`
	Admitted      bool       `json:"admitted" yaml:"admitted"`
	Reason        string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	Tree          treeOutput `json:"tree" yaml:"tree"`
}

func newEstimateOutput(res estimate.Result) estimateOutput {
	return estimateOutput{
		Algorithm:     res.Algorithm,
		Nodes:         res.Nodes,
		Relationships: res.Relationships,
		MemoryLimit:   res.MemoryLimit,
		Admitted:      res.Admitted,
		Reason:        res.Reason,
		Tree:          newTreeOutput(res.Tree),
	}
}

// jobOutput is the serialized running job.
type jobOutput struct {
	Username    string    `json:"username" yaml:"username"`
	JobID       string    `json:"jobId" yaml:"jobId"`
	Description string    `json:"description" yaml:"description"`
	Status      string    `json:"status" yaml:"status"`
	Progress    int64     `json:"progress" yaml:"progress"`
	Volume      int64     `json:"volume" yaml:"volume"`
	StartTime   time.Time `json:"startTime" yaml:"startTime"`
}

func newJobOutputs(js []jobs.Job) []jobOutput {
	out := make([]jobOutput, 0, len(js))
	for _, j := range js {
		out = append(out, jobOutput{
			Username:    j.Username,
			JobID:       j.JobID.String(),
			Description: j.Description,
			Status:      string(j.Status),
			Progress:    j.Progress.Progress,
			Volume:      j.Progress.Volume,
			StartTime:   j.StartTime.UTC(),
		})
	}
	return out
}

// eventOutput is the serialized job event.
type eventOutput struct {
	ID          string    `json:"id" yaml:"id"`
	Type        string    `json:"type" yaml:"type"`
	Username    string    `json:"username,omitempty" yaml:"username,omitempty"`
	JobID       string    `json:"jobId,omitempty" yaml:"jobId,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"`
	Progress    int64     `json:"progress" yaml:"progress"`
	Volume      int64     `json:"volume" yaml:"volume"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

func newEventOutputs(events []storage.JobEvent) []eventOutput {
	out := make([]eventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, eventOutput{
			ID:          e.ID,
			Type:        string(e.Type),
			Username:    e.Username,
			JobID:       e.JobID.String(),
			Description: e.Description,
			Status:      string(e.Status),
			Progress:    e.Progress,
			Volume:      e.Volume,
			CreatedAt:   e.CreatedAt.UTC(),
		})
	}
	return out
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message" yaml:"message"`
}
