// Package degree computes the degree centrality of the nodes of a graph.
package degree

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/graph"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/partition"
	"github.com/slok/galgo/internal/progress"
	"github.com/slok/galgo/internal/task"
)

// Name is the name of the algorithm.
const Name = "Degree"

const (
	computeTask = "Compute degrees"
	// checkEvery is the number of nodes between termination checks.
	checkEvery = 1 << 10
	minBatch   = 1 << 10
)

// Orientation is the relationship direction that is counted.
type Orientation string

const (
	// OrientationNatural counts the outgoing relationships.
	OrientationNatural Orientation = "natural"
	// OrientationReverse counts the incoming relationships.
	OrientationReverse Orientation = "reverse"
	// OrientationUndirected counts both.
	OrientationUndirected Orientation = "undirected"
)

// Config is the degree centrality configuration.
type Config struct {
	algorithm.CommonConfig `yaml:",inline"`
	Orientation            Orientation `yaml:"orientation"`
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{Orientation: OrientationNatural}
}

func (c Config) Validate() error {
	if err := c.CommonConfig.Validate(); err != nil {
		return err
	}

	switch c.Orientation {
	case OrientationNatural, OrientationReverse, OrientationUndirected:
	default:
		return model.NewConfigError("orientation", "unknown orientation %q", c.Orientation)
	}

	return nil
}

// Algorithm is the degree centrality algorithm.
type Algorithm struct{}

var _ algorithm.Algorithm[Config, []float64] = Algorithm{}

// New returns the degree centrality algorithm.
func New() Algorithm { return Algorithm{} }

func (Algorithm) Name() string { return Name }

func (Algorithm) Task(g graph.Graph, cfg Config) *task.Task {
	return task.Composite(Name, task.LeafWithVolume(computeTask, g.NodeCount()))
}

func (Algorithm) Estimation(cfg Config) memory.Estimation {
	b := memory.NewBuilder(Name).
		Fixed("instance", memory.SizeOfInstance(16)).
		Add(memory.OfDimensions("degrees", func(d model.GraphDimensions, _ model.Concurrency) memory.Range {
			return memory.Of(memory.SizeOfFloat64Slice(d.NodeCount()))
		}))
	if cfg.Orientation != OrientationNatural {
		b = b.Add(memory.OfDimensions("counters", func(d model.GraphDimensions, _ model.Concurrency) memory.Range {
			return memory.Of(memory.SizeOfInt64Slice(d.NodeCount()))
		}))
	}
	return b.Build()
}

func (Algorithm) Compute(ctx context.Context, cc algorithm.ComputeContext[Config]) (_ []float64, err error) {
	g := cc.Resources.Graph
	n := g.NodeCount()

	tracker := progress.NewBatchingTracker(cc.Tracker, n, cc.Concurrency)
	st := progress.Begin(tracker, computeTask)
	defer st.End(&err)

	degrees := make([]float64, n)
	var incoming []atomic.Int64
	if cc.Config.Orientation != OrientationNatural {
		incoming = make([]atomic.Int64, n)
	}

	ranges := partition.Ranges(n, cc.Concurrency, minBatch)
	err = partition.Run(ctx, ranges, cc.Concurrency, func(ctx context.Context, r partition.Range) error {
		for node := r.Start; node < r.End; node++ {
			if (node-r.Start)%checkEvery == 0 {
				if err := cc.Termination.AssertRunning(); err != nil {
					return err
				}
			}

			if cc.Config.Orientation != OrientationReverse {
				degrees[node] = float64(g.Degree(node))
			}
			if incoming != nil {
				g.ForEachRelationship(node, func(target int64) bool {
					incoming[target].Add(1)
					return true
				})
			}
			tracker.LogProgress(1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not compute degrees: %w", err)
	}

	for i := range incoming {
		degrees[i] += float64(incoming[i].Load())
	}

	return degrees, nil
}

// Row is a streamed node score.
type Row struct {
	NodeID int64   `json:"nodeId" yaml:"nodeId"`
	Score  float64 `json:"score" yaml:"score"`
}

// Stats is the result of the stats mode.
type Stats struct {
	CentralityDistribution algorithm.StatisticalSummary `json:"centralityDistribution" yaml:"centralityDistribution"`
	algorithm.Timings      `yaml:",inline"`
}

func streamMode() algorithm.Mode[Config, []float64, algorithm.StreamResult[Row]] {
	return algorithm.StreamMode(func(b algorithm.BuildContext[Config, []float64]) iter.Seq[Row] {
		return func(yield func(Row) bool) {
			for node, score := range b.Result {
				if !yield(Row{NodeID: int64(node), Score: score}) {
					return
				}
			}
		}
	})
}

func statsMode() algorithm.Mode[Config, []float64, Stats] {
	return algorithm.StatsMode(func(b algorithm.BuildContext[Config, []float64]) Stats {
		return Stats{
			CentralityDistribution: algorithm.SummarizeValues(b.Result),
			Timings:                b.Timings,
		}
	})
}

func distribution(b algorithm.BuildContext[Config, []float64]) any {
	return algorithm.SummarizeValues(b.Result)
}

// NewSpec returns the degree centrality spec over a graph with all the
// execution modes.
func NewSpec(graphName string) algorithm.Spec {
	return algorithm.NewSpec(graphName, New(), NewConfig,
		algorithm.EraseStream(streamMode()),
		algorithm.EraseSummary(statsMode()),
		algorithm.EraseSummary(algorithm.MutateMode(algorithm.WriteNodeValues[Config], distribution)),
		algorithm.EraseSummary(algorithm.WriteMode(algorithm.WriteNodeValues[Config], distribution)),
	)
}
