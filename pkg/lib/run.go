package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/model"
	storageio "github.com/slok/galgo/internal/storage/io"
	"github.com/slok/galgo/internal/termination"
)

// RunOpts are the options of an algorithm execution.
type RunOpts struct {
	// Graph is loaded in the client catalog before the execution, replacing
	// any graph with the same name.
	Graph Graph
	// Algorithm is the name of the algorithm, case insensitive.
	Algorithm string
	// Mode defaults to [ExecutionModeStream].
	Mode ExecutionMode
	// Username owns the job. Default: "anonymous".
	Username string
	// JobID identifies the job. Default: a new ULID.
	JobID string
	// Config has the algorithm parameters, missing ones use their defaults.
	Config map[string]any
}

// Run executes an algorithm over a graph.
//
// Cancelling ctx terminates the execution with [ErrTerminated]. Returns
// [ErrNotFound] for unknown algorithms, [ErrNotValid] for invalid graphs or
// parameters and [ErrInsufficientMemory] when the memory limit is exceeded.
func (c *Client) Run(ctx context.Context, opts RunOpts) (*RunResult, error) {
	mode := model.ExecutionMode(opts.Mode)
	if mode == "" {
		mode = model.ExecutionModeStream
	}
	config := opts.Config
	if config == nil {
		config = map[string]any{}
	}

	return c.run(ctx, model.RunConfig{
		Graph:     toInternalGraphSource(opts.Graph),
		Algorithm: opts.Algorithm,
		Mode:      mode,
		Username:  opts.Username,
		JobID:     model.JobID(opts.JobID),
		Config:    config,
	})
}

// RunFile executes the algorithm of a run file, files with the `.hcl`
// extension are HCL and the rest YAML.
//
// Returns [ErrNotValid] if the run file is not valid.
func (c *Client) RunFile(ctx context.Context, path string) (*RunResult, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid run file path: %w", err)
	}

	repo := storageio.NewRunFileRepository(os.DirFS(filepath.Dir(path)))
	cfg, err := repo.GetRunConfig(ctx, filepath.Base(path))
	if err != nil {
		return nil, mapError(err)
	}

	return c.run(ctx, cfg)
}

func (c *Client) run(ctx context.Context, cfg model.RunConfig) (*RunResult, error) {
	res, err := c.runSvc.Run(ctx, run.Request{
		Run:         cfg,
		Termination: termination.NewContextFlag(ctx),
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalRunResult(*res)
	return &result, nil
}
