package progress_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/progress"
	storagememory "github.com/slok/galgo/internal/storage/memory"
	"github.com/slok/galgo/internal/task"
)

func assertMisuse(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "expected an error panic, got: %v", r)
		assert.ErrorIs(t, err, progress.ErrTrackerMisuse)
	}()
	f()
}

func newTracker(t *testing.T, root *task.Task) *progress.TaskTracker {
	t.Helper()
	tr, err := progress.NewTaskTracker(progress.TaskTrackerConfig{Task: root})
	require.NoError(t, err)
	return tr
}

func TestNewTaskTrackerConfig(t *testing.T) {
	_, err := progress.NewTaskTracker(progress.TaskTrackerConfig{})
	assert.Error(t, err)

	tr, err := progress.NewTaskTracker(progress.TaskTrackerConfig{
		Task:        task.Leaf("root"),
		Concurrency: model.MustConcurrency(8),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.JobID())
	assert.Equal(t, 8, tr.Task().MaxConcurrency())
}

func TestTaskTrackerStackDiscipline(t *testing.T) {
	root := task.Composite("root", task.Leaf("a"), task.Leaf("b"))
	tr := newTracker(t, root)

	depths := []int{}
	tr.BeginSubtask()
	depths = append(depths, tr.Depth())
	tr.BeginSubtask()
	depths = append(depths, tr.Depth())
	tr.EndSubtask()
	depths = append(depths, tr.Depth())
	tr.BeginSubtask()
	depths = append(depths, tr.Depth())
	tr.EndSubtask()
	depths = append(depths, tr.Depth())
	tr.EndSubtask()
	depths = append(depths, tr.Depth())

	assert.Equal(t, []int{1, 2, 1, 2, 1, 0}, depths)
	assert.Equal(t, task.StatusFinished, root.Status())

	// The root can only end once.
	assertMisuse(t, tr.EndSubtask)
	assertMisuse(t, tr.BeginSubtask)
}

func TestTaskTrackerMisuse(t *testing.T) {
	tests := map[string]struct {
		run func(tr *progress.TaskTracker)
	}{
		"Ending without beginning should fail.": {
			run: func(tr *progress.TaskTracker) { tr.EndSubtask() },
		},

		"Ending with failure without beginning should fail.": {
			run: func(tr *progress.TaskTracker) { tr.EndSubtaskWithFailure() },
		},

		"Beginning when all the children were visited should fail.": {
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.BeginSubtask()
				tr.EndSubtask()
				tr.BeginSubtask()
				tr.EndSubtask()
				tr.BeginSubtask()
			},
		},

		"Beginning with a wrong description should fail.": {
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.BeginSubtaskWithDescription("Compute")
			},
		},

		"Ending with a wrong description should fail.": {
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtaskWithDescription("root")
				tr.EndSubtaskWithDescription("Load input")
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTracker(t, task.Composite("root", task.Leaf("Load input"), task.Leaf("Write")))
			assertMisuse(t, func() { test.run(tr) })
		})
	}
}

func TestTaskTrackerTaskStateMisuse(t *testing.T) {
	load := task.Leaf("Load input")
	tr := newTracker(t, task.Composite("root", load, task.Leaf("Write")))

	tr.BeginSubtask()
	// A sibling started out of the tracker blocks the next subtask.
	load.Start()

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok, "expected an error panic")
		assert.ErrorIs(t, err, progress.ErrTrackerMisuse)
		assert.ErrorIs(t, err, task.ErrIllegalState)
	}()
	tr.BeginSubtask()
}

func TestTaskTrackerAssertSubtask(t *testing.T) {
	tr := newTracker(t, task.Composite("root", task.Leaf("Load input"), task.Leaf("Compute")))
	tr.BeginSubtask()
	tr.BeginSubtask()

	assert.NotPanics(t, func() { tr.AssertSubtask("Load input") })
	assert.NotPanics(t, func() { tr.AssertSubtask("Load") })
	assertMisuse(t, func() { tr.AssertSubtask("Compute") })
}

func TestTaskTrackerProgress(t *testing.T) {
	tests := map[string]struct {
		root   func() *task.Task
		run    func(tr *progress.TaskTracker)
		expVol int64
		expPro int64
	}{
		"Logging progress in a leaf should complete it.": {
			root: func() *task.Task { return task.LeafWithVolume("root", 100) },
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.LogProgress(25)
				tr.LogProgress(75)
			},
			expVol: 100,
			expPro: 100,
		},

		"Setting the volume after starting should be used.": {
			root: func() *task.Task { return task.Leaf("root") },
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.SetVolume(40)
				tr.LogProgress(10)
			},
			expVol: 40,
			expPro: 10,
		},

		"Beginning with volume should set the volume.": {
			root: func() *task.Task { return task.Composite("root", task.Leaf("a")) },
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.BeginSubtaskWithVolume(7)
				tr.LogProgress(3)
			},
			expVol: 7,
			expPro: 3,
		},

		"Logging progress without a running task should be ignored.": {
			root: func() *task.Task { return task.LeafWithVolume("root", 10) },
			run: func(tr *progress.TaskTracker) {
				tr.LogProgress(5)
			},
			expVol: task.UnknownVolume,
			expPro: 0,
		},

		"Logging progress on a composite should be ignored.": {
			root: func() *task.Task { return task.Composite("root", task.LeafWithVolume("a", 10)) },
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.LogProgress(5)
			},
			expVol: 10,
			expPro: 0,
		},

		"Logging progress with a message should log progress.": {
			root: func() *task.Task { return task.LeafWithVolume("root", 10) },
			run: func(tr *progress.TaskTracker) {
				tr.BeginSubtask()
				tr.LogProgressWithMessage(4, "Processed %d nodes")
			},
			expVol: 10,
			expPro: 4,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTracker(t, test.root())
			test.run(tr)

			assert.Equal(t, test.expVol, tr.CurrentVolume())
			assert.Equal(t, test.expPro, tr.Task().Progress().Progress)
		})
	}
}

func TestTaskTrackerFinishLeaf(t *testing.T) {
	root := task.LeafWithVolume("root", 100)
	tr := newTracker(t, root)

	tr.BeginSubtask()
	tr.LogProgress(25)
	tr.LogProgress(75)
	assert.Equal(t, int64(100), tr.CurrentVolume())
	tr.EndSubtask()

	assert.Equal(t, task.StatusFinished, root.Status())
	assert.Equal(t, task.Progress{Progress: 100, Volume: 100}, root.Progress())
}

func TestTaskTrackerSteps(t *testing.T) {
	tests := map[string]struct {
		volume   int64
		steps    int64
		logSteps []int64
		exp      []int64
	}{
		"Steps should be split evenly in the volume.": {
			volume:   200,
			steps:    4,
			logSteps: []int64{1, 1, 1, 1},
			exp:      []int64{50, 100, 150, 200},
		},

		"Fractional steps should be carried to the next steps.": {
			volume:   10,
			steps:    3,
			logSteps: []int64{1, 1, 1},
			exp:      []int64{3, 6, 10},
		},

		"Many steps at once should be logged.": {
			volume:   100,
			steps:    10,
			logSteps: []int64{5, 5},
			exp:      []int64{50, 100},
		},

		"Unknown volume should log the steps as progress.": {
			volume:   task.UnknownVolume,
			steps:    5,
			logSteps: []int64{1, 2},
			exp:      []int64{1, 3},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			root := task.LeafWithVolume("root", test.volume)
			tr := newTracker(t, root)
			tr.BeginSubtask()
			tr.SetSteps(test.steps)

			got := []int64{}
			for _, s := range test.logSteps {
				tr.LogSteps(s)
				got = append(got, root.Progress().Progress)
			}
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestTaskTrackerStepsWithoutTotal(t *testing.T) {
	root := task.LeafWithVolume("root", 10)
	tr := newTracker(t, root)
	tr.BeginSubtask()
	tr.LogSteps(1)

	assert.Equal(t, int64(0), root.Progress().Progress)
}

func TestTaskTrackerConcurrentProgress(t *testing.T) {
	root := task.LeafWithVolume("root", 8000)
	tr := newTracker(t, root)
	tr.BeginSubtask()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				tr.LogProgress(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, task.Progress{Progress: 8000, Volume: 8000}, root.Progress())
}

func TestTaskTrackerRegistry(t *testing.T) {
	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{})
	require.NoError(t, err)

	root := task.Composite("root", task.Leaf("a"))
	tr, err := progress.NewTaskTracker(progress.TaskTrackerConfig{
		Task:            root,
		JobID:           "job-1",
		RegistryFactory: progress.NewLocalTaskRegistryFactory("alice", store),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, store.TaskCount())

	tr.BeginSubtask()
	ut, ok := store.Query("alice", "job-1")
	require.True(t, ok)
	assert.Same(t, root, ut.Task)

	tr.BeginSubtask()
	tr.EndSubtask()
	assert.Equal(t, 1, store.TaskCount())

	tr.EndSubtask()
	assert.Equal(t, 0, store.TaskCount())
}

func TestTaskTrackerRelease(t *testing.T) {
	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{})
	require.NoError(t, err)

	a := task.Leaf("a")
	root := task.Composite("root", a, task.Leaf("b"))
	tr, err := progress.NewTaskTracker(progress.TaskTrackerConfig{
		Task:            root,
		RegistryFactory: progress.NewLocalTaskRegistryFactory("alice", store),
	})
	require.NoError(t, err)

	tr.BeginSubtask()
	tr.BeginSubtask()
	tr.Release()

	assert.Equal(t, 0, tr.Depth())
	assert.Equal(t, 0, store.TaskCount())
	assert.Equal(t, task.StatusFailed, a.Status())
	assert.Equal(t, task.StatusFailed, root.Status())

	// Releasing twice is safe.
	assert.NotPanics(t, tr.Release)
}

func TestTaskTrackerEndWithFailure(t *testing.T) {
	a := task.Leaf("a")
	root := task.Composite("root", a, task.Leaf("b"))
	tr := newTracker(t, root)

	tr.BeginSubtask()
	tr.BeginSubtask()
	tr.EndSubtaskWithFailure()

	assert.Equal(t, task.StatusFailed, a.Status())
	assert.Equal(t, task.StatusRunning, root.Status())
	assert.Equal(t, 1, tr.Depth())
}

func TestTaskTrackerMetadata(t *testing.T) {
	a := task.Leaf("a")
	root := task.Composite("root", a)
	tr := newTracker(t, root)

	tr.SetEstimatedResourceFootprint(memory.OfRange(10, 20))
	tr.RequestedConcurrency(model.MustConcurrency(3))

	assert.Equal(t, memory.OfRange(10, 20), root.EstimatedMemoryRange())
	assert.Equal(t, 3, root.MaxConcurrency())
}

func TestTaskTrackerDynamicIterations(t *testing.T) {
	root := task.Iterative("iterations", task.IterativeModeDynamic, 5, func() []*task.Task {
		return []*task.Task{task.LeafWithVolume("iteration", 10)}
	})
	tr := newTracker(t, root)

	tr.BeginSubtask()
	for range 2 {
		tr.BeginSubtask()
		tr.LogProgress(10)
		tr.EndSubtask()
	}
	tr.EndSubtask()

	assert.Equal(t, 2, root.CurrentIteration())
	rel, ok := root.Progress().Relative()
	require.True(t, ok)
	assert.Equal(t, 1.0, rel)
}

type logLine struct {
	level string
	msg   string
	kv    log.Kv
}

type recordLogger struct {
	mu    *sync.Mutex
	kv    log.Kv
	lines *[]logLine
}

func newRecordLogger() recordLogger {
	return recordLogger{mu: &sync.Mutex{}, kv: log.Kv{}, lines: &[]logLine{}}
}

func (r recordLogger) add(level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.lines = append(*r.lines, logLine{level: level, msg: fmt.Sprintf(format, args...), kv: r.kv})
}

func (r recordLogger) Infof(format string, args ...any)    { r.add("info", format, args...) }
func (r recordLogger) Warningf(format string, args ...any) { r.add("warning", format, args...) }
func (r recordLogger) Errorf(format string, args ...any)   { r.add("error", format, args...) }
func (r recordLogger) Debugf(format string, args ...any)   { r.add("debug", format, args...) }
func (r recordLogger) WithValues(values log.Kv) log.Logger {
	kv := log.Kv{}
	for k, v := range r.kv {
		kv[k] = v
	}
	for k, v := range values {
		kv[k] = v
	}
	return recordLogger{mu: r.mu, kv: kv, lines: r.lines}
}
func (r recordLogger) WithCtxValues(ctx context.Context) log.Logger { return r }
func (r recordLogger) SetValuesOnCtx(parent context.Context, values log.Kv) context.Context {
	return parent
}

func TestTaskTrackerLogging(t *testing.T) {
	logger := newRecordLogger()
	tr, err := progress.NewTaskTracker(progress.TaskTrackerConfig{
		Task:   task.Composite("PageRank", task.LeafWithVolume("compute", 4)),
		JobID:  "job-1",
		Logger: logger,
	})
	require.NoError(t, err)

	tr.BeginSubtask()
	tr.BeginSubtask()
	tr.LogProgress(1)
	tr.LogProgress(1)
	tr.LogInfo("halfway")
	tr.LogProgress(2)
	tr.EndSubtask()
	tr.EndSubtask()

	got := []string{}
	for _, l := range *logger.lines {
		assert.Equal(t, "job-1", l.kv["job"])
		assert.Equal(t, "progress.TaskTracker", l.kv["svc"])
		got = append(got, fmt.Sprintf("%s|%s", l.kv["task"], l.msg))
	}

	exp := []string{
		"PageRank|:: Start",
		"PageRank :: compute|:: Start",
		"PageRank :: compute|25%",
		"PageRank :: compute|50%",
		"PageRank :: compute|:: halfway",
		"PageRank :: compute|100%",
		"PageRank :: compute|:: Finished",
		"PageRank|100%",
		"PageRank|:: Finished",
	}
	assert.Equal(t, exp, got)
}
