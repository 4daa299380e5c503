// Package algo is the catalog of the available algorithms.
package algo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slok/galgo/internal/algo/degree"
	"github.com/slok/galgo/internal/algo/pagerank"
	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/model"
)

// NewSpecFunc returns the spec of an algorithm bound to a graph.
type NewSpecFunc func(graphName string) algorithm.Spec

// Registry resolves algorithm names into specs, names are case insensitive.
type Registry struct {
	specs map[string]NewSpecFunc
}

// NewRegistry returns a registry with the algorithms.
func NewRegistry(algorithms map[string]NewSpecFunc) *Registry {
	specs := make(map[string]NewSpecFunc, len(algorithms))
	for name, fn := range algorithms {
		specs[strings.ToLower(name)] = fn
	}
	return &Registry{specs: specs}
}

// DefaultRegistry has all the algorithms of the module.
var DefaultRegistry = NewRegistry(map[string]NewSpecFunc{
	degree.Name:   degree.NewSpec,
	pagerank.Name: pagerank.NewSpec,
})

// NewSpec returns the spec of the named algorithm over a graph.
func (r *Registry) NewSpec(name, graphName string) (algorithm.Spec, error) {
	fn, ok := r.specs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("algorithm %q (available: %s): %w", name, strings.Join(r.Names(), ", "), model.ErrNotFound)
	}
	return fn(graphName), nil
}

// Names returns the sorted registered algorithm names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
