// Package pagerank computes the PageRank centrality of the nodes of a graph.
//
// Scores are propagated pushing the contribution of every node to its targets
// in parallel, the iterations stop when the maximum score change is below the
// tolerance or the maximum iterations are reached.
package pagerank

import (
	"context"
	"fmt"
	"iter"
	"math"
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
const Name = "PageRank"

const (
	iterationsTask = "Iterations"
	iterationTask  = "Iteration"
	checkEvery     = 1 << 10
	minBatch       = 1 << 10
)

// Config is the PageRank configuration.
type Config struct {
	algorithm.CommonConfig `yaml:",inline"`
	MaxIterations          int     `yaml:"maxIterations"`
	DampingFactor          float64 `yaml:"dampingFactor"`
	Tolerance              float64 `yaml:"tolerance"`
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{
		MaxIterations: 20,
		DampingFactor: 0.85,
		Tolerance:     1e-7,
	}
}

func (c Config) Validate() error {
	if err := c.CommonConfig.Validate(); err != nil {
		return err
	}
	if c.MaxIterations < 1 {
		return model.NewConfigError("maxIterations", "must be at least 1, got: %d", c.MaxIterations)
	}
	if c.DampingFactor < 0 || c.DampingFactor >= 1 {
		return model.NewConfigError("dampingFactor", "must be in [0, 1), got: %v", c.DampingFactor)
	}
	if c.Tolerance < 0 {
		return model.NewConfigError("tolerance", "can't be negative, got: %v", c.Tolerance)
	}
	return nil
}

// Result is the computed PageRank.
type Result struct {
	Scores      []float64
	Iterations  int
	DidConverge bool
}

// Algorithm is the PageRank algorithm.
type Algorithm struct{}

var _ algorithm.Algorithm[Config, Result] = Algorithm{}

// New returns the PageRank algorithm.
func New() Algorithm { return Algorithm{} }

func (Algorithm) Name() string { return Name }

func (Algorithm) Task(g graph.Graph, cfg Config) *task.Task {
	n := g.NodeCount()
	return task.Composite(Name,
		task.Iterative(iterationsTask, task.IterativeModeDynamic, cfg.MaxIterations, func() []*task.Task {
			return []*task.Task{task.LeafWithVolume(iterationTask, n)}
		}),
	)
}

func (Algorithm) Estimation(cfg Config) memory.Estimation {
	perNode := func(d model.GraphDimensions, _ model.Concurrency) memory.Range {
		return memory.Of(memory.SizeOfFloat64Slice(d.NodeCount()))
	}

	return memory.NewBuilder(Name).
		Fixed("instance", memory.SizeOfInstance(40)).
		StartField("scores").
		Add(memory.OfDimensions("current", perNode)).
		Add(memory.OfDimensions("next", perNode)).
		EndField().
		PerThread("workers", memory.Fixed("worker", memory.SizeOfInstance(32))).
		Build()
}

func (Algorithm) Compute(ctx context.Context, cc algorithm.ComputeContext[Config]) (_ Result, err error) {
	g := cc.Resources.Graph
	n := g.NodeCount()
	cfg := cc.Config

	tracker := progress.NewBatchingTracker(cc.Tracker, n, cc.Concurrency)
	st := progress.Begin(tracker, iterationsTask)
	defer st.End(&err)

	c := &computation{
		graph:   g,
		cc:      cc,
		tracker: tracker,
		ranges:  partition.Ranges(n, cc.Concurrency, minBatch),
		scores:  make([]float64, n),
		next:    make(float64s, n),
	}
	for i := range c.scores {
		c.scores[i] = 1 - cfg.DampingFactor
	}

	res := Result{}
	for res.Iterations < cfg.MaxIterations {
		if err := cc.Termination.AssertRunning(); err != nil {
			return Result{}, err
		}

		delta, err := c.iterate(ctx)
		if err != nil {
			return Result{}, err
		}
		res.Iterations++

		if delta < cfg.Tolerance {
			res.DidConverge = true
			break
		}
	}
	tracker.LogInfo(fmt.Sprintf("Ran %d iterations, converged: %t", res.Iterations, res.DidConverge))

	res.Scores = c.scores
	return res, nil
}

type computation struct {
	graph   graph.Graph
	cc      algorithm.ComputeContext[Config]
	tracker progress.Tracker
	ranges  []partition.Range
	scores  []float64
	next    float64s
}

// iterate runs a single iteration and returns the maximum score change.
func (c *computation) iterate(ctx context.Context) (_ float64, err error) {
	st := progress.Begin(c.tracker, iterationTask)
	defer st.End(&err)

	damping := c.cc.Config.DampingFactor

	err = partition.Run(ctx, c.ranges, c.cc.Concurrency, func(ctx context.Context, r partition.Range) error {
		for node := r.Start; node < r.End; node++ {
			if (node-r.Start)%checkEvery == 0 {
				if err := c.cc.Termination.AssertRunning(); err != nil {
					return err
				}
			}

			if degree := c.graph.Degree(node); degree > 0 {
				share := damping * c.scores[node] / float64(degree)
				c.graph.ForEachRelationship(node, func(target int64) bool {
					c.next.add(target, share)
					return true
				})
			}
			c.tracker.LogProgress(1)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not propagate scores: %w", err)
	}

	// Scores are non negative so their bits keep the float order.
	var maxDelta atomic.Uint64
	err = partition.Run(ctx, c.ranges, c.cc.Concurrency, func(ctx context.Context, r partition.Range) error {
		local := 0.0
		for node := r.Start; node < r.End; node++ {
			score := (1 - damping) + c.next.swap(node, 0)
			local = math.Max(local, math.Abs(score-c.scores[node]))
			c.scores[node] = score
		}

		bits := math.Float64bits(local)
		for {
			old := maxDelta.Load()
			if old >= bits || maxDelta.CompareAndSwap(old, bits) {
				return nil
			}
		}
	})
	if err != nil {
		return 0, fmt.Errorf("could not update scores: %w", err)
	}

	return math.Float64frombits(maxDelta.Load()), nil
}

// float64s are float64 values stored as bits that can be updated concurrently.
type float64s []atomic.Uint64

func (f float64s) add(i int64, delta float64) {
	for {
		old := f[i].Load()
		if f[i].CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+delta)) {
			return
		}
	}
}

func (f float64s) swap(i int64, v float64) float64 {
	return math.Float64frombits(f[i].Swap(math.Float64bits(v)))
}

// Row is a streamed node score.
type Row struct {
	NodeID int64   `json:"nodeId" yaml:"nodeId"`
	Score  float64 `json:"score" yaml:"score"`
}

// Summary is the algorithm part of the stats, mutate and write results.
type Summary struct {
	RanIterations          int                          `json:"ranIterations" yaml:"ranIterations"`
	DidConverge            bool                         `json:"didConverge" yaml:"didConverge"`
	CentralityDistribution algorithm.StatisticalSummary `json:"centralityDistribution" yaml:"centralityDistribution"`
}

// Stats is the result of the stats mode.
type Stats struct {
	Summary           `yaml:",inline"`
	algorithm.Timings `yaml:",inline"`
}

func summarize(b algorithm.BuildContext[Config, Result]) Summary {
	return Summary{
		RanIterations:          b.Result.Iterations,
		DidConverge:            b.Result.DidConverge,
		CentralityDistribution: algorithm.SummarizeValues(b.Result.Scores),
	}
}

func writeScores(ctx context.Context, sc algorithm.SideEffectContext[Config, Result]) (int64, error) {
	return algorithm.WriteNodeValues(ctx, algorithm.SideEffectContext[Config, []float64]{
		Resources: sc.Resources,
		Result:    sc.Result.Scores,
		Config:    sc.Config,
	})
}

func streamMode() algorithm.Mode[Config, Result, algorithm.StreamResult[Row]] {
	return algorithm.StreamMode(func(b algorithm.BuildContext[Config, Result]) iter.Seq[Row] {
		return func(yield func(Row) bool) {
			for node, score := range b.Result.Scores {
				if !yield(Row{NodeID: int64(node), Score: score}) {
					return
				}
			}
		}
	})
}

func statsMode() algorithm.Mode[Config, Result, Stats] {
	return algorithm.StatsMode(func(b algorithm.BuildContext[Config, Result]) Stats {
		return Stats{Summary: summarize(b), Timings: b.Timings}
	})
}

func summary(b algorithm.BuildContext[Config, Result]) any { return summarize(b) }

// NewSpec returns the PageRank spec over a graph with all the execution
// modes.
func NewSpec(graphName string) algorithm.Spec {
	return algorithm.NewSpec(graphName, New(), NewConfig,
		algorithm.EraseStream(streamMode()),
		algorithm.EraseSummary(statsMode()),
		algorithm.EraseSummary(algorithm.MutateMode(writeScores, summary)),
		algorithm.EraseSummary(algorithm.WriteMode(writeScores, summary)),
	)
}
