// Package graph is the boundary with the graph storage layer used by the
// algorithms.
package graph

import "context"

// Edge is a directed relationship between two nodes.
type Edge struct {
	Source int64
	Target int64
}

// Graph is a read only directed graph with node ids in [0, NodeCount) plus
// writable node properties.
type Graph interface {
	Name() string
	NodeCount() int64
	RelationshipCount() int64
	// Degree returns the number of outgoing relationships of a node.
	Degree(node int64) int64
	// ForEachRelationship calls fn with every target of the node until fn
	// returns false.
	ForEachRelationship(node int64, fn func(target int64) bool)

	NodeProperty(key string) ([]float64, bool)
	NodePropertyKeys() []string
	// WriteNodeProperty sets the values of a property for all the nodes.
	WriteNodeProperty(key string, values []float64) error
}

// Catalog is the named graphs directory.
type Catalog interface {
	// Get returns the graph, model.ErrGraphNotFound when missing.
	Get(ctx context.Context, name string) (Graph, error)
}

// Resources are the storage handles an algorithm execution works with.
type Resources struct {
	Graph   Graph
	Catalog Catalog
}
