package estimate

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/galgo/internal/algo"
	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/graph"
	graphmemory "github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
)

// SpecRegistry resolves algorithm names into specs.
type SpecRegistry interface {
	NewSpec(name, graphName string) (algorithm.Spec, error)
}

// ServiceConfig is the configuration for the estimate service.
type ServiceConfig struct {
	// Catalog has the graphs that can be estimated by name, optional.
	Catalog  graph.Catalog
	Registry SpecRegistry
	// MemoryLimit is the limit the estimations are checked against, 0 disables it.
	MemoryLimit int64
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Catalog == nil {
		catalog, err := graphmemory.NewCatalog(graphmemory.CatalogConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create empty catalog: %w", err)
		}
		c.Catalog = catalog
	}
	if c.Registry == nil {
		c.Registry = algo.DefaultRegistry
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Estimate"})
	return nil
}

// Service estimates the memory of algorithm executions without running them.
type Service struct {
	registry    SpecRegistry
	processor   *algorithm.Processor
	memoryLimit int64
	logger      log.Logger
}

// NewService creates a new estimate service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p, err := algorithm.NewProcessor(algorithm.ProcessorConfig{
		Catalog:     cfg.Catalog,
		MemoryLimit: cfg.MemoryLimit,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create processor: %w", err)
	}

	return &Service{
		registry:    cfg.Registry,
		processor:   p,
		memoryLimit: cfg.MemoryLimit,
		logger:      cfg.Logger,
	}, nil
}

// Request is an estimation request. When GraphName is set the graph of the
// catalog is used, otherwise the fictitious node and relationship counts.
type Request struct {
	Algorithm     string
	GraphName     string
	Nodes         int64
	Relationships int64
	Config        map[string]any
}

// Result is the estimation of an execution.
type Result struct {
	Algorithm     string
	Nodes         int64
	Relationships int64
	Tree          memory.Tree
	MemoryLimit   int64
	// Admitted is false when the execution would be rejected by the memory limit.
	Admitted bool
	// Reason is why the execution would be rejected.
	Reason string
}

// Estimate returns the memory estimation of an execution.
func (s *Service) Estimate(ctx context.Context, req Request) (*Result, error) {
	spec, err := s.registry.NewSpec(req.Algorithm, req.GraphName)
	if err != nil {
		return nil, fmt.Errorf("could not resolve algorithm: %w", err)
	}

	var dims model.GraphDimensions
	if req.GraphName != "" {
		g, err := s.processor.Catalog().Get(ctx, req.GraphName)
		if err != nil {
			return nil, fmt.Errorf("could not load graph: %w", err)
		}
		dims = g
	} else {
		if req.Nodes < 0 || req.Relationships < 0 {
			return nil, model.NewConfigError("dimensions", "node and relationship counts can't be negative, got: %d, %d", req.Nodes, req.Relationships)
		}
		dims = model.StaticGraphDimensions{Nodes: req.Nodes, Relationships: req.Relationships}
	}

	tree, err := spec.Estimate(req.Config, dims)
	if err != nil {
		return nil, fmt.Errorf("could not estimate %s: %w", spec.Name(), err)
	}

	res := &Result{
		Algorithm:     spec.Name(),
		Nodes:         dims.NodeCount(),
		Relationships: dims.RelationshipCount(),
		Tree:          tree,
		MemoryLimit:   s.memoryLimit,
		Admitted:      true,
	}

	err = s.processor.Admit(tree)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInsufficientMemory):
		res.Admitted = false
		res.Reason = err.Error()
	default:
		return nil, err
	}

	s.logger.Debugf("%s estimated with %d nodes: %s", spec.Name(), res.Nodes, tree.MemoryUsage())
	return res, nil
}
