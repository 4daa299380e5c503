// Package memory implements graphs in memory using a compressed sparse row
// layout.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/galgo/internal/graph"
	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
)

// Graph is an in-memory graph.
type Graph struct {
	name      string
	nodeCount int64
	offsets   []int64
	targets   []int64

	mu         sync.RWMutex
	properties map[string][]float64
}

var _ graph.Graph = &Graph{}

// NewGraph returns a new graph with nodeCount nodes and the relationships of
// edges, the relationships of each node keep the order of edges.
func NewGraph(name string, nodeCount int64, edges []graph.Edge) (*Graph, error) {
	if name == "" {
		return nil, fmt.Errorf("graph name is required: %w", model.ErrInvalidGraph)
	}
	if nodeCount < 0 {
		return nil, fmt.Errorf("node count can't be negative, got %d: %w", nodeCount, model.ErrInvalidGraph)
	}

	offsets := make([]int64, nodeCount+1)
	for _, e := range edges {
		if e.Source < 0 || e.Source >= nodeCount || e.Target < 0 || e.Target >= nodeCount {
			return nil, fmt.Errorf("relationship (%d)->(%d) out of node range [0, %d): %w", e.Source, e.Target, nodeCount, model.ErrInvalidGraph)
		}
		offsets[e.Source+1]++
	}
	for i := int64(1); i <= nodeCount; i++ {
		offsets[i] += offsets[i-1]
	}

	targets := make([]int64, len(edges))
	next := make([]int64, nodeCount)
	copy(next, offsets[:nodeCount])
	for _, e := range edges {
		targets[next[e.Source]] = e.Target
		next[e.Source]++
	}

	return &Graph{
		name:       name,
		nodeCount:  nodeCount,
		offsets:    offsets,
		targets:    targets,
		properties: map[string][]float64{},
	}, nil
}

func (g *Graph) Name() string             { return g.name }
func (g *Graph) NodeCount() int64         { return g.nodeCount }
func (g *Graph) RelationshipCount() int64 { return int64(len(g.targets)) }

func (g *Graph) Degree(node int64) int64 {
	return g.offsets[node+1] - g.offsets[node]
}

func (g *Graph) ForEachRelationship(node int64, fn func(target int64) bool) {
	for _, t := range g.targets[g.offsets[node]:g.offsets[node+1]] {
		if !fn(t) {
			return
		}
	}
}

func (g *Graph) NodeProperty(key string) ([]float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	values, ok := g.properties[key]
	return values, ok
}

func (g *Graph) NodePropertyKeys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.properties))
	for k := range g.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Graph) WriteNodeProperty(key string, values []float64) error {
	if key == "" {
		return fmt.Errorf("property key is required: %w", model.ErrNotValid)
	}
	if int64(len(values)) != g.nodeCount {
		return fmt.Errorf("property %q has %d values, graph has %d nodes: %w", key, len(values), g.nodeCount, model.ErrNotValid)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.properties[key]; ok {
		return fmt.Errorf("property %q %w", key, model.ErrAlreadyExists)
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	g.properties[key] = cp

	return nil
}

// CatalogConfig is the configuration of the memory catalog.
type CatalogConfig struct {
	Logger log.Logger
}

func (c *CatalogConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "graph.MemoryCatalog"})
	return nil
}

// Catalog is an in-memory graph catalog.
type Catalog struct {
	graphs map[string]graph.Graph
	mu     sync.RWMutex
	logger log.Logger
}

var _ graph.Catalog = &Catalog{}

// NewCatalog returns a new empty catalog.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Catalog{
		graphs: map[string]graph.Graph{},
		logger: cfg.Logger,
	}, nil
}

// Put adds a graph to the catalog.
func (c *Catalog) Put(g graph.Graph) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.graphs[g.Name()]; ok {
		return fmt.Errorf("graph %q %w", g.Name(), model.ErrAlreadyExists)
	}
	c.graphs[g.Name()] = g
	c.logger.Debugf("Graph %q added with %d nodes and %d relationships", g.Name(), g.NodeCount(), g.RelationshipCount())

	return nil
}

// Replace adds a graph to the catalog, replacing any graph with the same name
// in a single step. Returns true when a graph was replaced.
func (c *Catalog) Replace(g graph.Graph) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, replaced := c.graphs[g.Name()]
	c.graphs[g.Name()] = g
	c.logger.Debugf("Graph %q loaded with %d nodes and %d relationships (replaced: %t)", g.Name(), g.NodeCount(), g.RelationshipCount(), replaced)

	return replaced
}

// Get returns a graph of the catalog.
func (c *Catalog) Get(_ context.Context, name string) (graph.Graph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, model.ErrGraphNotFound)
	}
	return g, nil
}

// Drop removes a graph from the catalog.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.graphs[name]; !ok {
		return fmt.Errorf("%q: %w", name, model.ErrGraphNotFound)
	}
	delete(c.graphs, name)
	c.logger.Debugf("Graph %q dropped", name)

	return nil
}

// List returns the graph names sorted.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.graphs))
	for n := range c.graphs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewGraphFromSource returns the graph of an inline graph definition with its
// node properties.
func NewGraphFromSource(src model.GraphSource) (*Graph, error) {
	edges := make([]graph.Edge, 0, len(src.Relationships))
	for _, r := range src.Relationships {
		edges = append(edges, graph.Edge{Source: r[0], Target: r[1]})
	}

	g, err := NewGraph(src.Name, src.NodeCount, edges)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(src.Properties))
	for k := range src.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := g.WriteNodeProperty(k, src.Properties[k]); err != nil {
			return nil, fmt.Errorf("could not set property %q: %w", k, err)
		}
	}

	return g, nil
}
