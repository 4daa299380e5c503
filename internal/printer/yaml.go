package printer

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/storage"
)

// YAMLPrinter prints galgo results in YAML format.
type YAMLPrinter struct {
	writer io.Writer
}

var _ Printer = &YAMLPrinter{}

// NewYAMLPrinter creates a new YAML printer.
func NewYAMLPrinter(w io.Writer) *YAMLPrinter {
	return &YAMLPrinter{writer: w}
}

func (y *YAMLPrinter) encode(v any) error {
	enc := yaml.NewEncoder(y.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (y *YAMLPrinter) PrintRun(res run.Result) error {
	return y.encode(newRunOutput(res))
}

func (y *YAMLPrinter) PrintEstimate(res estimate.Result) error {
	return y.encode(newEstimateOutput(res))
}

func (y *YAMLPrinter) PrintJobs(js []jobs.Job) error {
	return y.encode(newJobOutputs(js))
}

func (y *YAMLPrinter) PrintHistory(events []storage.JobEvent) error {
	return y.encode(newEventOutputs(events))
}

func (y *YAMLPrinter) PrintMessage(msg string) error {
	return y.encode(messageOutput{Message: msg})
}
