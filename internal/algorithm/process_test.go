package algorithm_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/graph"
	graphmemory "github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	storagememory "github.com/slok/galgo/internal/storage/memory"
	"github.com/slok/galgo/internal/task"
	"github.com/slok/galgo/internal/termination"
)

type fakeConfig struct {
	algorithm.CommonConfig `yaml:",inline"`
	Factor                 float64 `yaml:"factor"`
}

func (c fakeConfig) Validate() error {
	if err := c.CommonConfig.Validate(); err != nil {
		return err
	}
	if c.Factor <= 0 {
		return model.NewConfigError("factor", "must be positive, got: %v", c.Factor)
	}
	return nil
}

func newFakeConfig() fakeConfig { return fakeConfig{Factor: 1} }

// fakeAlgorithm multiplies the node ids by a factor.
type fakeAlgorithm struct {
	err        error
	estimation memory.Estimation
	computed   int
	root       *task.Task
	onCompute  func(cc algorithm.ComputeContext[fakeConfig])
}

func (f *fakeAlgorithm) Name() string { return "fake" }

func (f *fakeAlgorithm) Task(g graph.Graph, cfg fakeConfig) *task.Task {
	f.root = task.Composite("fake", task.LeafWithVolume("compute", g.NodeCount()))
	return f.root
}

func (f *fakeAlgorithm) Estimation(cfg fakeConfig) memory.Estimation {
	if f.estimation != nil {
		return f.estimation
	}
	return memory.NewBuilder("fake").PerNode("values", 8).Build()
}

func (f *fakeAlgorithm) Compute(ctx context.Context, cc algorithm.ComputeContext[fakeConfig]) ([]float64, error) {
	f.computed++
	if f.onCompute != nil {
		f.onCompute(cc)
	}
	if f.err != nil {
		return nil, f.err
	}
	if err := cc.Termination.AssertRunning(); err != nil {
		return nil, err
	}

	g := cc.Resources.Graph
	values := make([]float64, g.NodeCount())
	cc.Tracker.BeginSubtask()
	for i := range values {
		values[i] = float64(i) * cc.Config.Factor
		cc.Tracker.LogProgress(1)
	}
	cc.Tracker.EndSubtask()

	return values, nil
}

type fakeRow struct {
	NodeID int64
	Value  float64
}

func fakeStreamMode() algorithm.Mode[fakeConfig, []float64, algorithm.StreamResult[fakeRow]] {
	return algorithm.StreamMode(func(b algorithm.BuildContext[fakeConfig, []float64]) iter.Seq[fakeRow] {
		return func(yield func(fakeRow) bool) {
			for i, v := range b.Result {
				if !yield(fakeRow{NodeID: int64(i), Value: v}) {
					return
				}
			}
		}
	})
}

type fakeStats struct {
	Summary algorithm.StatisticalSummary
	Timings algorithm.Timings
}

func fakeStatsMode() algorithm.Mode[fakeConfig, []float64, fakeStats] {
	return algorithm.StatsMode(func(b algorithm.BuildContext[fakeConfig, []float64]) fakeStats {
		return fakeStats{Summary: algorithm.SummarizeValues(b.Result), Timings: b.Timings}
	})
}

func writeProperty(ctx context.Context, sc algorithm.SideEffectContext[fakeConfig, []float64]) (int64, error) {
	err := sc.Resources.Graph.WriteNodeProperty(sc.Config.Property, sc.Result)
	if err != nil {
		return 0, err
	}
	return int64(len(sc.Result)), nil
}

// testClock moves 10ms forward on every call.
func testClock() func() time.Time {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(10 * time.Millisecond)
		return now
	}
}

type testEnv struct {
	graph     *graphmemory.Graph
	processor *algorithm.Processor
	store     *storagememory.TaskStore
}

func newTestEnv(t *testing.T, memoryLimit int64) testEnv {
	t.Helper()

	g, err := graphmemory.NewGraph("test", 4, []graph.Edge{{Source: 0, Target: 1}, {Source: 1, Target: 2}})
	require.NoError(t, err)
	catalog, err := graphmemory.NewCatalog(graphmemory.CatalogConfig{})
	require.NoError(t, err)
	require.NoError(t, catalog.Put(g))

	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{})
	require.NoError(t, err)

	p, err := algorithm.NewProcessor(algorithm.ProcessorConfig{
		Catalog:     catalog,
		TaskStore:   store,
		MemoryLimit: memoryLimit,
		Clock:       testClock(),
	})
	require.NoError(t, err)

	return testEnv{graph: g, processor: p, store: store}
}

func request(cfg fakeConfig) algorithm.Request[fakeConfig] {
	return algorithm.Request[fakeConfig]{GraphName: "test", Username: "alice", Config: cfg}
}

func TestProcessStreamAndStatsShareTimings(t *testing.T) {
	env := newTestEnv(t, 0)

	stream, err := algorithm.Process(context.TODO(), env.processor, request(newFakeConfig()), &fakeAlgorithm{}, fakeStreamMode())
	require.NoError(t, err)

	stats, err := algorithm.Process(context.TODO(), env.processor, request(newFakeConfig()), &fakeAlgorithm{}, fakeStatsMode())
	require.NoError(t, err)

	assert.Equal(t, int64(10), stream.Timings.ComputeMillis)
	assert.Equal(t, stream.Timings.ComputeMillis, stats.Timings.ComputeMillis)
	assert.Equal(t, int64(0), stream.Timings.SideEffectMillis)

	rows := slices.Collect(stream.Rows)
	assert.Equal(t, []fakeRow{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, rows)
	assert.Equal(t, int64(4), stats.Summary.Count)
	assert.Equal(t, 3.0, stats.Summary.Max)
}

func TestProcessMutationModes(t *testing.T) {
	tests := map[string]struct {
		mode func() algorithm.Mode[fakeConfig, []float64, algorithm.MutateResult]
		exp  model.ExecutionMode
	}{
		"Mutate mode should set the property in the graph.": {
			mode: func() algorithm.Mode[fakeConfig, []float64, algorithm.MutateResult] {
				return algorithm.MutateMode(writeProperty, nil)
			},
			exp: model.ExecutionModeMutate,
		},

		"Write mode should have the same result as mutate.": {
			mode: func() algorithm.Mode[fakeConfig, []float64, algorithm.MutateResult] {
				return algorithm.WriteMode(writeProperty, func(b algorithm.BuildContext[fakeConfig, []float64]) any {
					return len(b.Result)
				})
			},
			exp: model.ExecutionModeWrite,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			cfg := newFakeConfig()
			cfg.Factor = 2
			cfg.Property = "score"

			mode := test.mode()
			assert.Equal(t, test.exp, mode.Kind())

			res, err := algorithm.Process(context.TODO(), env.processor, request(cfg), &fakeAlgorithm{}, mode)
			require.NoError(t, err)

			assert.Equal(t, "score", res.Property)
			assert.Equal(t, int64(4), res.NodePropertiesWritten)
			assert.Equal(t, int64(10), res.Timings.ComputeMillis)
			assert.Equal(t, int64(10), res.Timings.SideEffectMillis)

			values, ok := env.graph.NodeProperty("score")
			require.True(t, ok)
			assert.Equal(t, []float64{0, 2, 4, 6}, values)
		})
	}
}

func TestProcessErrors(t *testing.T) {
	tests := map[string]struct {
		memoryLimit int64
		req         func() algorithm.Request[fakeConfig]
		algo        func() *fakeAlgorithm
		mutate      bool
		expErr      error
		expConfig   bool
		expComputed int
	}{
		"An invalid configuration should fail before computing.": {
			req: func() algorithm.Request[fakeConfig] {
				cfg := newFakeConfig()
				cfg.Factor = -1
				return request(cfg)
			},
			algo:      func() *fakeAlgorithm { return &fakeAlgorithm{} },
			expErr:    model.ErrNotValid,
			expConfig: true,
		},

		"Invalid concurrency should fail before computing.": {
			req: func() algorithm.Request[fakeConfig] {
				cfg := newFakeConfig()
				cfg.ConcurrencyValue = -2
				return request(cfg)
			},
			algo:      func() *fakeAlgorithm { return &fakeAlgorithm{} },
			expErr:    model.ErrNotValid,
			expConfig: true,
		},

		"Mutate without property should fail before computing.": {
			req:       func() algorithm.Request[fakeConfig] { return request(newFakeConfig()) },
			algo:      func() *fakeAlgorithm { return &fakeAlgorithm{} },
			mutate:    true,
			expErr:    model.ErrNotValid,
			expConfig: true,
		},

		"A missing graph should fail before computing.": {
			req: func() algorithm.Request[fakeConfig] {
				r := request(newFakeConfig())
				r.GraphName = "missing"
				return r
			},
			algo:   func() *fakeAlgorithm { return &fakeAlgorithm{} },
			expErr: model.ErrGraphNotFound,
		},

		"A computation error should be an execution error.": {
			req:         func() algorithm.Request[fakeConfig] { return request(newFakeConfig()) },
			algo:        func() *fakeAlgorithm { return &fakeAlgorithm{err: errors.New("something")} },
			expErr:      model.ErrExecution,
			expComputed: 1,
		},

		"A graph error should be kept.": {
			req:         func() algorithm.Request[fakeConfig] { return request(newFakeConfig()) },
			algo:        func() *fakeAlgorithm { return &fakeAlgorithm{err: model.ErrInvalidGraph} },
			expErr:      model.ErrInvalidGraph,
			expComputed: 1,
		},

		"A terminated execution should return a termination error.": {
			req: func() algorithm.Request[fakeConfig] {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				r := request(newFakeConfig())
				r.Termination = termination.NewContextFlag(ctx)
				return r
			},
			algo:        func() *fakeAlgorithm { return &fakeAlgorithm{} },
			expErr:      model.ErrTerminated,
			expComputed: 1,
		},

		"A cancelled computation should return a termination error.": {
			req:         func() algorithm.Request[fakeConfig] { return request(newFakeConfig()) },
			algo:        func() *fakeAlgorithm { return &fakeAlgorithm{err: context.Canceled} },
			expErr:      model.ErrTerminated,
			expComputed: 1,
		},

		"An execution over the memory limit should be rejected.": {
			memoryLimit: 8,
			req:         func() algorithm.Request[fakeConfig] { return request(newFakeConfig()) },
			algo:        func() *fakeAlgorithm { return &fakeAlgorithm{} },
			expErr:      model.ErrInsufficientMemory,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, test.memoryLimit)
			algo := test.algo()

			var err error
			if test.mutate {
				_, err = algorithm.Process(context.TODO(), env.processor, test.req(), algo, algorithm.MutateMode(writeProperty, nil))
			} else {
				_, err = algorithm.Process(context.TODO(), env.processor, test.req(), algo, fakeStatsMode())
			}

			assert.ErrorIs(t, err, test.expErr)
			var cfgErr *model.ConfigError
			assert.Equal(t, test.expConfig, errors.As(err, &cfgErr))
			assert.Equal(t, test.expComputed, algo.computed)
			assert.Equal(t, 0, env.store.TaskCount())

			if test.expComputed > 0 {
				assert.Equal(t, task.StatusFailed, algo.root.Status())
			}
		})
	}
}

func TestProcessNotEstimatedSkipsAdmission(t *testing.T) {
	env := newTestEnv(t, 1)
	algo := &fakeAlgorithm{estimation: memory.NotEstimated("fake")}

	_, err := algorithm.Process(context.TODO(), env.processor, request(newFakeConfig()), algo, fakeStatsMode())
	require.NoError(t, err)
	assert.Equal(t, memory.Empty(), algo.root.EstimatedMemoryRange())
}

func TestProcessTracksTheJob(t *testing.T) {
	env := newTestEnv(t, 0)

	var running int
	var username string
	algo := &fakeAlgorithm{
		onCompute: func(cc algorithm.ComputeContext[fakeConfig]) {
			running = env.store.TaskCount()
			for _, ut := range env.store.QueryAll() {
				username = ut.Username
			}
		},
	}

	cfg := newFakeConfig()
	cfg.ConcurrencyValue = 2
	cfg.JobID = "job-1"
	_, err := algorithm.Process(context.TODO(), env.processor, request(cfg), algo, fakeStatsMode())
	require.NoError(t, err)

	assert.Equal(t, 1, running)
	assert.Equal(t, "alice", username)
	assert.Equal(t, 0, env.store.TaskCount())
	assert.Equal(t, task.StatusFinished, algo.root.Status())
	assert.Equal(t, 2, algo.root.MaxConcurrency())
	assert.Equal(t, memory.Of(4*8), algo.root.EstimatedMemoryRange())
}
