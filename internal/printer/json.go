package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/storage"
)

// JSONPrinter prints galgo results in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

var _ Printer = &JSONPrinter{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRun prints an execution with all its streamed rows.
func (j *JSONPrinter) PrintRun(res run.Result) error {
	return j.encode(newRunOutput(res))
}

// PrintEstimate prints an estimation with its memory tree.
func (j *JSONPrinter) PrintEstimate(res estimate.Result) error {
	return j.encode(newEstimateOutput(res))
}

// PrintJobs prints the running jobs.
func (j *JSONPrinter) PrintJobs(js []jobs.Job) error {
	return j.encode(newJobOutputs(js))
}

// PrintHistory prints the job events.
func (j *JSONPrinter) PrintHistory(events []storage.JobEvent) error {
	return j.encode(newEventOutputs(events))
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}
