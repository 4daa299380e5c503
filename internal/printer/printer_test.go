package printer_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/slok/galgo/internal/algo/degree"
	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/printer"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/task"
)

func streamResult() run.Result {
	rows := []any{degree.Row{NodeID: 0, Score: 2}, degree.Row{NodeID: 1, Score: 1.5}}
	return run.Result{
		Algorithm: "Degree",
		Username:  "alice",
		JobID:     "job-1",
		Output: algorithm.Output{
			Mode:    model.ExecutionModeStream,
			Timings: algorithm.Timings{PreProcessingMillis: 1, ComputeMillis: 1500},
			Rows: func(yield func(any) bool) {
				for _, r := range rows {
					if !yield(r) {
						return
					}
				}
			},
		},
	}
}

func statsResult() run.Result {
	return run.Result{
		Algorithm: "Degree",
		Username:  "alice",
		JobID:     "job-2",
		Output: algorithm.Output{
			Mode: model.ExecutionModeStats,
			Summary: degree.Stats{
				CentralityDistribution: algorithm.StatisticalSummary{Count: 4, Max: 2, StdDev: 0.5},
				Timings:                algorithm.Timings{ComputeMillis: 3},
			},
		},
	}
}

func estimateResult() estimate.Result {
	tree := memory.SumTree("Degree", []memory.Tree{
		memory.LeafTree("instance", memory.Of(32)),
		memory.LeafTree("degrees", memory.Of(8016)),
	})
	return estimate.Result{
		Algorithm:   "Degree",
		Nodes:       1000,
		Tree:        tree,
		MemoryLimit: 1024,
		Reason:      "insufficient memory",
	}
}

func TestTablePrinterPrintRun(t *testing.T) {
	tests := map[string]struct {
		res         run.Result
		expContains []string
	}{
		"stream results should print the rows as a table": {
			res: streamResult(),
			expContains: []string{
				"Algorithm:  Degree",
				"Job:        job-1 (alice)",
				"Timings:    pre-processing 1ms, compute 1.5s, side effect 0s",
				"NODE ID  SCORE",
				"0        2",
				"1        1.5",
			},
		},
		"summary results should print the fields": {
			res: statsResult(),
			expContains: []string{
				"Mode:       stats",
				"Centrality Distribution:\n",
				"  Count:",
				"  Std Dev:",
				"Compute Millis:",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printer.NewTablePrinter(&buf).PrintRun(test.res)
			require.NoError(t, err)

			out := buf.String()
			for _, exp := range test.expContains {
				assert.Contains(t, out, exp)
			}
		})
	}
}

func TestJSONPrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintRun(streamResult())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Degree", got["algorithm"])
	assert.Equal(t, "stream", got["mode"])
	assert.Equal(t, []any{
		map[string]any{"nodeId": 0.0, "score": 2.0},
		map[string]any{"nodeId": 1.0, "score": 1.5},
	}, got["rows"])
	assert.NotContains(t, got, "summary")
}

func TestYAMLPrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewYAMLPrinter(&buf).PrintRun(statsResult())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	summary := got["summary"].(map[string]any)
	assert.Equal(t, 3, summary["computeMillis"])
	assert.Equal(t, 4, summary["centralityDistribution"].(map[string]any)["count"])
	assert.NotContains(t, got, "rows")
}

func TestPrintEstimate(t *testing.T) {
	var table bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&table).PrintEstimate(estimateResult()))
	assert.Contains(t, table.String(), "Memory:         7.9 KiB")
	assert.Contains(t, table.String(), "Memory limit:   1.0 KiB")
	assert.Contains(t, table.String(), "Admitted:       no (insufficient memory)")
	assert.Contains(t, table.String(), "|-- degrees: 7.8 KiB")

	var js bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&js).PrintEstimate(estimateResult()))
	assert.Contains(t, js.String(), `"minBytes": 8048`)
	assert.Contains(t, js.String(), `"description": "instance"`)
}

func TestTablePrinterPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintJobs([]jobs.Job{
		{Username: "alice", JobID: "job-1", Description: "PageRank", Status: task.StatusRunning, Progress: task.Progress{Progress: 45, Volume: 100}},
		{Username: "bob", JobID: "job-2", Description: "Degree", Status: task.StatusRunning, Progress: task.Progress{Progress: 3, Volume: task.UnknownVolume}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "USER   JOB    TASK      STATUS   PROGRESS  STARTED")
	assert.Contains(t, out, "alice  job-1  PageRank  running  45%       never")
	assert.Contains(t, out, "bob    job-2  Degree    running  n/a       never")
}

func TestTablePrinterPrintHistory(t *testing.T) {
	at := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintHistory([]storage.JobEvent{
		{Type: storage.JobEventAdded, Username: "alice", JobID: "job-1", Description: "PageRank", Status: task.StatusNotStarted, Volume: -1, CreatedAt: at},
		{Type: storage.JobEventRemoved, Username: "alice", JobID: "job-1", Description: "PageRank", Status: task.StatusFinished, Progress: 40, Volume: 40, CreatedAt: at},
		{Type: storage.JobEventCleared, CreatedAt: at},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2026-10-14 10:00:00 UTC  added    alice  job-1  PageRank  not_started  0")
	assert.Contains(t, out, "removed  alice  job-1  PageRank  finished     40/40")
	assert.Contains(t, out, "cleared  -      -      -         -            -")
}

func TestPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&buf).PrintMessage("done"))
	assert.JSONEq(t, `{"message": "done"}`, buf.String())
}
