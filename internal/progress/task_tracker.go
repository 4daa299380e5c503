package progress

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/task"
)

const unknownSteps int64 = -1

// TaskTrackerConfig is the configuration of the task tracker.
type TaskTrackerConfig struct {
	// Task is the root of the tracked task tree.
	Task *task.Task
	// JobID identifies the tracked job, a new one is generated when empty.
	JobID model.JobID
	// Concurrency is the concurrency requested by the job.
	Concurrency model.Concurrency
	// RegistryFactory publishes the task while it's running.
	RegistryFactory TaskRegistryFactory
	Logger          log.Logger
}

func (c *TaskTrackerConfig) defaults() error {
	if c.Task == nil {
		return fmt.Errorf("task is required")
	}

	if c.JobID == "" {
		c.JobID = model.NewJobID()
	}

	if c.RegistryFactory == nil {
		c.RegistryFactory = EmptyTaskRegistryFactory
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "progress.TaskTracker"})

	return nil
}

// TaskTracker is the Tracker that moves a task tree through its lifecycle,
// publishing the root task on the registry while the job is running.
type TaskTracker struct {
	base     *task.Task
	jobID    model.JobID
	registry *TaskRegistry
	tlog     *taskLogger

	mu         sync.Mutex
	stack      []*task.Task
	totalSteps int64
	leftovers  float64
	didWarn    bool
}

var _ Tracker = &TaskTracker{}

// NewTaskTracker returns a new task tracker.
func NewTaskTracker(cfg TaskTrackerConfig) (*TaskTracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	t := &TaskTracker{
		base:       cfg.Task,
		jobID:      cfg.JobID,
		registry:   cfg.RegistryFactory.NewInstance(cfg.JobID),
		tlog:       newTaskLogger(cfg.Logger, cfg.JobID),
		totalSteps: unknownSteps,
	}
	t.base.SetMaxConcurrency(cfg.Concurrency.Value())

	return t, nil
}

// JobID returns the tracked job.
func (t *TaskTracker) JobID() model.JobID { return t.jobID }

// Task returns the root of the tracked tree.
func (t *TaskTracker) Task() *task.Task { return t.base }

// Depth returns the number of open tasks.
func (t *TaskTracker) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}

func (t *TaskTracker) BeginSubtask() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.begin()
}

func (t *TaskTracker) BeginSubtaskWithDescription(expected string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.begin()
	t.assert(expected)
}

func (t *TaskTracker) BeginSubtaskWithVolume(volume int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.begin()
	t.setVolume(next, volume)
}

func (t *TaskTracker) begin() *task.Task {
	defer rethrowTaskMisuse()

	if !t.registry.ContainsTask(t.base) {
		t.registry.RegisterTask(t.base)
	}

	var next *task.Task
	if len(t.stack) == 0 {
		if s := t.base.Status(); s != task.StatusNotStarted {
			panic(fmt.Errorf("%w: can't begin a subtask, root task %q is already %s", ErrTrackerMisuse, t.base.Description(), s))
		}
		next = t.base
	} else {
		parent := t.stack[len(t.stack)-1]
		next = parent.NextSubtask()
		if next == nil {
			panic(fmt.Errorf("%w: no pending subtasks available for %q", ErrTrackerMisuse, parent.Description()))
		}
	}

	next.Start()
	t.stack = append(t.stack, next)
	t.totalSteps = unknownSteps
	t.leftovers = 0
	t.tlog.begin(next)

	return next
}

func (t *TaskTracker) EndSubtask() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.end(false)
}

func (t *TaskTracker) EndSubtaskWithDescription(expected string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.assert(expected)
	t.end(false)
}

func (t *TaskTracker) EndSubtaskWithFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.end(true)
}

func (t *TaskTracker) end(failed bool) {
	defer rethrowTaskMisuse()

	if len(t.stack) == 0 {
		panic(fmt.Errorf("%w: can't end a subtask, there are no running tasks", ErrTrackerMisuse))
	}

	current := t.stack[len(t.stack)-1]
	if failed {
		current.Fail()
	} else {
		current.Finish()
		t.tlog.progress(current.Progress())
	}
	t.tlog.end(failed)

	t.stack = t.stack[:len(t.stack)-1]
	t.totalSteps = unknownSteps
	t.leftovers = 0

	if len(t.stack) == 0 {
		t.registry.UnregisterTask()
	}
}

func (t *TaskTracker) AssertSubtask(expected string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.assert(expected)
}

func (t *TaskTracker) assert(expected string) {
	if len(t.stack) == 0 {
		panic(fmt.Errorf("%w: expected task %q, but there are no running tasks", ErrTrackerMisuse, expected))
	}

	current := t.stack[len(t.stack)-1].Description()
	if !strings.Contains(current, expected) {
		panic(fmt.Errorf("%w: expected task name to contain %q, but was %q", ErrTrackerMisuse, expected, current))
	}
}

func (t *TaskTracker) SetVolume(volume int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.currentLeaf("set volume")
	if !ok {
		return
	}
	t.setVolume(current, volume)
}

func (t *TaskTracker) setVolume(current *task.Task, volume int64) {
	if !current.IsLeaf() {
		t.warnOnce(fmt.Sprintf("Tried to set volume on task %q, but it's not a leaf task", current.Description()))
		return
	}
	current.SetVolume(volume)
	t.tlog.reset()
}

func (t *TaskTracker) CurrentVolume() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.stack) == 0 {
		t.warnOnce("Tried to get the volume, but there are no running tasks being tracked")
		return task.UnknownVolume
	}
	return t.stack[len(t.stack)-1].Progress().Volume
}

func (t *TaskTracker) SetSteps(steps int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if steps < 1 {
		t.warnOnce(fmt.Sprintf("Total steps for task must be at least 1 but was %d", steps))
		return
	}
	t.totalSteps = steps
	t.leftovers = 0
}

// LogSteps logs the progress units of a number of steps. Fractional units are
// carried to the next call so all the steps add up to the task volume.
func (t *TaskTracker) LogSteps(steps int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.currentLeaf("log steps")
	if !ok {
		return
	}
	if t.totalSteps == unknownSteps {
		t.warnOnce("Tried to log steps without setting total steps")
		return
	}

	toLog := steps
	if volume := current.CurrentVolume(); volume != task.UnknownVolume {
		progress := float64(steps)*float64(volume)/float64(t.totalSteps) + t.leftovers
		whole := math.Floor(progress)
		t.leftovers = progress - whole
		toLog = int64(whole)
	}

	if toLog > 0 {
		t.logProgress(current, toLog)
	}
}

func (t *TaskTracker) LogProgress(value int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.currentLeaf("log progress")
	if !ok {
		return
	}
	t.logProgress(current, value)
}

func (t *TaskTracker) LogProgressWithMessage(value int64, template string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.currentLeaf("log progress")
	if !ok {
		return
	}
	t.logProgress(current, value)
	t.tlog.info(formatProgressMessage(template, value))
}

func (t *TaskTracker) logProgress(current *task.Task, value int64) {
	current.LogProgress(value)
	t.tlog.progress(current.Progress())
}

func (t *TaskTracker) currentLeaf(action string) (*task.Task, bool) {
	if len(t.stack) == 0 {
		t.warnOnce(fmt.Sprintf("Tried to %s, but there are no running tasks being tracked", action))
		return nil, false
	}
	current := t.stack[len(t.stack)-1]
	if !current.IsLeaf() {
		t.warnOnce(fmt.Sprintf("Tried to %s on task %q, but it's not a leaf task", action, current.Description()))
		return nil, false
	}
	return current, true
}

// warnOnce logs tracker issues only once per session so workers in a loop
// don't flood the logs.
func (t *TaskTracker) warnOnce(msg string) {
	if t.didWarn {
		return
	}
	t.didWarn = true
	t.tlog.warning(msg)
}

func (t *TaskTracker) LogDebug(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tlog.debug(msg)
}

func (t *TaskTracker) LogInfo(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tlog.info(msg)
}

func (t *TaskTracker) LogWarning(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tlog.warning(msg)
}

func (t *TaskTracker) SetEstimatedResourceFootprint(r memory.Range) {
	t.base.SetEstimatedMemoryRange(r)
}

func (t *TaskTracker) RequestedConcurrency(c model.Concurrency) {
	t.base.SetMaxConcurrency(c.Value())
}

// Release fails the tasks that are still open and unregisters the job.
func (t *TaskTracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.stack) > 0 {
		t.tlog.warning(fmt.Sprintf("Attempted to release tracker, but task %q is still running", t.base.Description()))
		for len(t.stack) > 0 {
			t.end(true)
		}
		return
	}
	t.registry.UnregisterTask()
}

// rethrowTaskMisuse wraps the task state panics with ErrTrackerMisuse, it must
// be deferred.
func rethrowTaskMisuse() {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok && errors.Is(err, task.ErrIllegalState) && !errors.Is(err, ErrTrackerMisuse) {
		panic(fmt.Errorf("%w: %w", ErrTrackerMisuse, err))
	}
	panic(r)
}

func formatProgressMessage(template string, value int64) string {
	v := strconv.FormatInt(value, 10)
	switch {
	case strings.Contains(template, "%d"):
		return strings.ReplaceAll(template, "%d", v)
	case strings.Contains(template, "{}"):
		return strings.ReplaceAll(template, "{}", v)
	default:
		return template + " " + v
	}
}
