// Package algorithm is the execution framework every algorithm plugs into: it
// validates the configuration, loads the graph, checks the estimated memory,
// tracks the progress and renders the result for the requested mode.
package algorithm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/galgo/internal/graph"
	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/progress"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/task"
	"github.com/slok/galgo/internal/termination"
)

// Algorithm is the computation of an algorithm.
type Algorithm[C Config, R any] interface {
	Name() string
	// Task returns the task tree tracked while computing. The framework begins
	// and ends the root task, Compute handles the rest of the tree.
	Task(g graph.Graph, cfg C) *task.Task
	Estimation(cfg C) memory.Estimation
	Compute(ctx context.Context, cc ComputeContext[C]) (R, error)
}

// ComputeContext is what an algorithm gets to compute.
type ComputeContext[C Config] struct {
	Resources   graph.Resources
	Config      C
	Concurrency model.Concurrency
	Tracker     progress.Tracker
	Termination termination.Flag
	Logger      log.Logger
}

// Request is a single execution of an algorithm.
type Request[C Config] struct {
	GraphName string
	Username  string
	// JobID identifies the execution, when empty the configured one or a new
	// one is used.
	JobID  model.JobID
	Config C
	// Termination stops the computation, by default it stops when the context
	// is done.
	Termination termination.Flag
}

// ProcessorConfig is the configuration of the processor.
type ProcessorConfig struct {
	Catalog graph.Catalog
	// TaskStore publishes the running jobs, optional.
	TaskStore storage.TaskStore
	// MemoryLimit rejects the executions whose estimated minimum memory is
	// bigger, 0 disables the check.
	MemoryLimit int64
	Logger      log.Logger
	Clock       func() time.Time
}

func (c *ProcessorConfig) defaults() error {
	if c.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}

	if c.MemoryLimit < 0 {
		return fmt.Errorf("memory limit can't be negative")
	}

	if c.Clock == nil {
		c.Clock = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "algorithm.Processor"})

	return nil
}

// Processor has the dependencies shared by all the executions.
type Processor struct {
	catalog     graph.Catalog
	store       storage.TaskStore
	memoryLimit int64
	logger      log.Logger
	clock       func() time.Time
}

// NewProcessor returns a new processor.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Processor{
		catalog:     cfg.Catalog,
		store:       cfg.TaskStore,
		memoryLimit: cfg.MemoryLimit,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}, nil
}

// Catalog returns the graph catalog used by the processor.
func (p *Processor) Catalog() graph.Catalog { return p.catalog }

// Admit checks the estimated memory of an execution fits in the memory limit.
// Not estimated trees are always admitted.
func (p *Processor) Admit(tree memory.Tree) error {
	if p.memoryLimit == 0 || !tree.Estimated() {
		return nil
	}

	if needed := tree.MemoryUsage().Min(); needed > p.memoryLimit {
		return fmt.Errorf("%s needs at least %s but the limit is %s: %w",
			tree.Description(), memory.FormatBytes(needed), memory.FormatBytes(p.memoryLimit), model.ErrInsufficientMemory)
	}

	return nil
}

// Estimate returns the memory estimation of a spec over its catalog graph.
func (p *Processor) Estimate(ctx context.Context, s Spec, raw RawConfig) (memory.Tree, error) {
	g, err := p.catalog.Get(ctx, s.GraphName())
	if err != nil {
		return memory.Tree{}, fmt.Errorf("could not load graph: %w", err)
	}

	return s.Estimate(raw, g)
}

func (p *Processor) registryFactory(username string) progress.TaskRegistryFactory {
	if p.store == nil {
		return progress.EmptyTaskRegistryFactory
	}
	return progress.NewLocalTaskRegistryFactory(username, p.store)
}

// Process executes an algorithm and renders its result with the mode.
//
// Invalid configurations and missing graphs fail before any work is done.
// Side effects only run when the computation succeeds.
func Process[C Config, R, O any](ctx context.Context, p *Processor, req Request[C], algo Algorithm[C, R], mode Mode[C, R, O]) (O, error) {
	var zero O

	preProcessing := startStopwatch(p.clock)

	if err := validateForMode(req.Config, mode.kind); err != nil {
		return zero, err
	}

	g, err := p.catalog.Get(ctx, req.GraphName)
	if err != nil {
		return zero, fmt.Errorf("could not load graph: %w", err)
	}
	res := graph.Resources{Graph: g, Catalog: p.catalog}

	common := req.Config.Common()
	concurrency := common.Concurrency()

	tree := algo.Estimation(req.Config).Estimate(g, concurrency)
	if err := p.Admit(tree); err != nil {
		return zero, err
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = model.JobID(common.JobID)
	}
	if jobID == "" {
		jobID = model.NewJobID()
	}
	logger := p.logger.WithValues(log.Kv{"algorithm": algo.Name(), "job": jobID.String()})

	tracker, err := progress.NewTaskTracker(progress.TaskTrackerConfig{
		Task:            algo.Task(g, req.Config),
		JobID:           jobID,
		Concurrency:     concurrency,
		RegistryFactory: p.registryFactory(req.Username),
		Logger:          logger,
	})
	if err != nil {
		return zero, fmt.Errorf("could not create progress tracker: %w", err)
	}
	defer tracker.Release()

	if tree.Estimated() {
		tracker.SetEstimatedResourceFootprint(tree.MemoryUsage())
	}

	flag := req.Termination
	if flag == nil {
		flag = termination.NewContextFlag(ctx)
	}

	timings := Timings{PreProcessingMillis: preProcessing.millis()}

	computing := startStopwatch(p.clock)
	result, err := compute(ctx, algo, tracker, ComputeContext[C]{
		Resources:   res,
		Config:      req.Config,
		Concurrency: concurrency,
		Tracker:     tracker,
		Termination: flag,
		Logger:      logger,
	})
	timings.ComputeMillis = computing.millis()
	if err != nil {
		return zero, err
	}

	var written int64
	switch mode.kind {
	case model.ExecutionModeMutate, model.ExecutionModeWrite:
		if mode.sideEffect == nil {
			return zero, fmt.Errorf("%s mode without side effect: %w", mode.kind, model.ErrNotValid)
		}
		sideEffect := startStopwatch(p.clock)
		written, err = mode.sideEffect(ctx, SideEffectContext[C, R]{Resources: res, Result: result, Config: req.Config})
		timings.SideEffectMillis = sideEffect.millis()
		if err != nil {
			return zero, fmt.Errorf("could not apply %s result: %w", mode.kind, err)
		}
		logger.Infof("%d node properties written in %dms", written, timings.SideEffectMillis)
	case model.ExecutionModeStream, model.ExecutionModeStats:
	default:
		return zero, fmt.Errorf("unknown execution mode %q: %w", mode.kind, model.ErrNotValid)
	}

	return mode.build(BuildContext[C, R]{
		Resources:             res,
		Result:                result,
		Timings:               timings,
		Config:                req.Config,
		NodePropertiesWritten: written,
	}), nil
}

// compute runs the algorithm inside the root task.
func compute[C Config, R any](ctx context.Context, algo Algorithm[C, R], tracker progress.Tracker, cc ComputeContext[C]) (result R, err error) {
	st := progress.Begin(tracker, "")
	defer st.End(&err)

	result, err = algo.Compute(ctx, cc)
	if err != nil {
		return result, classifyError(err)
	}

	return result, nil
}

func classifyError(err error) error {
	var cfgErr *model.ConfigError
	switch {
	case errors.Is(err, model.ErrTerminated),
		errors.Is(err, model.ErrExecution),
		errors.Is(err, model.ErrGraph),
		errors.Is(err, model.ErrInvalidGraph),
		errors.Is(err, model.ErrNotFound),
		errors.As(err, &cfgErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", model.ErrTerminated, err)
	}
	return fmt.Errorf("%w: %w", model.ErrExecution, err)
}
