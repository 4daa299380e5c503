package model

// GraphDimensions are the sizes of a graph used by memory estimations.
type GraphDimensions interface {
	NodeCount() int64
	RelationshipCount() int64
}

// StaticGraphDimensions are fixed dimensions, used for estimations of graphs
// that have not been loaded (fictitious graphs).
type StaticGraphDimensions struct {
	Nodes         int64
	Relationships int64
}

func (d StaticGraphDimensions) NodeCount() int64         { return d.Nodes }
func (d StaticGraphDimensions) RelationshipCount() int64 { return d.Relationships }

// ExecutionMode is how the result of an algorithm is rendered to the caller.
type ExecutionMode string

const (
	// ExecutionModeStream produces one row per relevant entity.
	ExecutionModeStream ExecutionMode = "stream"
	// ExecutionModeStats produces a single aggregated summary.
	ExecutionModeStats ExecutionMode = "stats"
	// ExecutionModeMutate applies the result into the in-memory graph.
	ExecutionModeMutate ExecutionMode = "mutate"
	// ExecutionModeWrite persists the result externally, at this moment behaves
	// like mutate.
	ExecutionModeWrite ExecutionMode = "write"
)

// Validate checks the mode is a known one.
func (m ExecutionMode) Validate() error {
	switch m {
	case ExecutionModeStream, ExecutionModeStats, ExecutionModeMutate, ExecutionModeWrite:
		return nil
	}
	return NewConfigError("mode", "unknown execution mode %q (must be: stream, stats, mutate, write)", string(m))
}
