package run

import (
	"context"
	"fmt"

	"github.com/slok/galgo/internal/algo"
	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/graph"
	graphmemory "github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/termination"
)

// DefaultUsername is the owner of the jobs without a user.
const DefaultUsername = "anonymous"

// SpecRegistry resolves algorithm names into specs.
type SpecRegistry interface {
	NewSpec(name, graphName string) (algorithm.Spec, error)
}

// GraphCatalog is a catalog where the run graphs are loaded.
type GraphCatalog interface {
	graph.Catalog
	// Replace loads the graph, replacing any graph with the same name atomically.
	Replace(g graph.Graph) bool
}

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Catalog  GraphCatalog
	Registry SpecRegistry
	// TaskStore tracks the running jobs, optional.
	TaskStore storage.TaskStore
	// MemoryLimit rejects executions estimated to need more bytes, 0 disables it.
	MemoryLimit int64
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if c.Registry == nil {
		c.Registry = algo.DefaultRegistry
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service executes algorithms over inline graphs.
type Service struct {
	catalog   GraphCatalog
	registry  SpecRegistry
	processor *algorithm.Processor
	logger    log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p, err := algorithm.NewProcessor(algorithm.ProcessorConfig{
		Catalog:     cfg.Catalog,
		TaskStore:   cfg.TaskStore,
		MemoryLimit: cfg.MemoryLimit,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create processor: %w", err)
	}

	return &Service{
		catalog:   cfg.Catalog,
		registry:  cfg.Registry,
		processor: p,
		logger:    cfg.Logger,
	}, nil
}

// Request is a run request.
type Request struct {
	Run model.RunConfig
	// Termination stops the execution, optional.
	Termination termination.Flag
}

// Result is the result of an execution.
type Result struct {
	Algorithm string
	Username  string
	JobID     model.JobID
	Output    algorithm.Output
}

// Run loads the graph of the request in the catalog, replacing any graph with
// the same name, and executes the algorithm over it.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	run := req.Run

	spec, err := s.registry.NewSpec(run.Algorithm, run.Graph.Name)
	if err != nil {
		return nil, fmt.Errorf("could not resolve algorithm: %w", err)
	}

	// Invalid requests must not replace the loaded graph.
	if err := spec.Validate(run.Config, run.Mode); err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", spec.Name(), err)
	}

	g, err := graphmemory.NewGraphFromSource(run.Graph)
	if err != nil {
		return nil, fmt.Errorf("could not create graph: %w", err)
	}
	if s.catalog.Replace(g) {
		s.logger.Debugf("Graph %q replaced", g.Name())
	}

	username := run.Username
	if username == "" {
		username = DefaultUsername
	}
	jobID := run.JobID
	if jobID == "" {
		jobID = model.NewJobID()
	}

	out, err := spec.Execute(ctx, s.processor, run.Config, algorithm.ExecutionContext{
		Username:    username,
		JobID:       jobID,
		Mode:        run.Mode,
		Termination: req.Termination,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("%s %s job %s executed in %dms", spec.Name(), out.Mode, jobID, out.Timings.ComputeMillis)

	return &Result{
		Algorithm: spec.Name(),
		Username:  username,
		JobID:     jobID,
		Output:    out,
	}, nil
}
