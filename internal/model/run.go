package model

// GraphSource is an inline graph definition, nodes are the ids in
// [0, NodeCount).
type GraphSource struct {
	Name          string
	NodeCount     int64
	Relationships [][2]int64
	// Properties are node property values, one per node.
	Properties map[string][]float64
}

// RunConfig is a complete algorithm execution request.
type RunConfig struct {
	Graph     GraphSource
	Algorithm string
	Mode      ExecutionMode
	Username  string
	JobID     JobID
	// Config is the raw algorithm configuration.
	Config map[string]any
}
