package task

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slok/galgo/internal/memory"
)

// ErrIllegalState is the panic value wrapped when a task is used in a state that
// doesn't allow the operation.
var ErrIllegalState = errors.New("illegal task state")

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusFinished   Status = "finished"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

const (
	// UnknownVolume marks a task whose volume is not known yet.
	UnknownVolume int64 = -1
	// UnknownConcurrency marks a task whose concurrency has not been requested.
	UnknownConcurrency = -1
)

// Task is a node of the pre-declared work tree used to track the progress of a job.
// Leaf tasks accumulate progress, composite tasks are an ordered list of
// children traversed in declaration order.
//
// Status transitions are driven by the progress tracker, algorithm code should
// never call Start, Finish, Fail or Cancel directly.
type Task struct {
	description string
	children    []*Task
	leaf        *leafState
	iterative   *iterativeState

	mu             sync.Mutex
	status         Status
	startTime      time.Time
	finishTime     time.Time
	memoryRange    memory.Range
	maxConcurrency int
}

type leafState struct {
	volume   atomic.Int64
	progress atomic.Int64
}

func newTask(description string, children []*Task) *Task {
	return &Task{
		description:    description,
		children:       children,
		status:         StatusNotStarted,
		maxConcurrency: UnknownConcurrency,
	}
}

// Leaf returns a leaf task with unknown volume.
func Leaf(description string) *Task {
	return LeafWithVolume(description, UnknownVolume)
}

// LeafWithVolume returns a leaf task that expects volume progress units.
func LeafWithVolume(description string, volume int64) *Task {
	if volume < 0 {
		volume = UnknownVolume
	}
	t := newTask(description, nil)
	t.leaf = &leafState{}
	t.leaf.volume.Store(volume)
	return t
}

// Composite returns a task made of an ordered sequence of children. A composite
// without children is valid and behaves as an empty unit of work.
func Composite(description string, children ...*Task) *Task {
	cs := make([]*Task, 0, len(children))
	cs = append(cs, children...)
	return newTask(description, cs)
}

// Description returns the task description.
func (t *Task) Description() string { return t.description }

// Children returns the task children in declared order.
func (t *Task) Children() []*Task {
	cs := make([]*Task, len(t.children))
	copy(cs, t.children)
	return cs
}

// IsLeaf returns true if the task accumulates progress directly.
func (t *Task) IsLeaf() bool { return t.leaf != nil }

// Status returns the current task status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// StartTime returns when the task started, zero if not started.
func (t *Task) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

// FinishTime returns when the task finished, zero if not finished.
func (t *Task) FinishTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishTime
}

// Start marks the task as running.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusNotStarted {
		panic(fmt.Errorf("%w: can't start task %q with status %s, task must not be started", ErrIllegalState, t.description, t.status))
	}
	t.status = StatusRunning
	t.startTime = time.Now()
}

// Finish marks the task as successfully finished. Leaf tasks are considered
// complete, with unknown volumes set to the logged progress.
func (t *Task) Finish() {
	t.mu.Lock()
	if t.status != StatusRunning {
		t.mu.Unlock()
		panic(fmt.Errorf("%w: task %q with status %s can't be finished", ErrIllegalState, t.description, t.status))
	}
	t.status = StatusFinished
	t.finishTime = time.Now()
	t.mu.Unlock()

	if t.leaf != nil {
		progress := t.leaf.progress.Load()
		volume := t.leaf.volume.Load()
		if volume == UnknownVolume {
			t.leaf.volume.Store(progress)
		} else if progress < volume {
			t.leaf.progress.Store(volume)
		}
	}

	if t.iterative != nil && t.iterative.mode == IterativeModeDynamic {
		for _, c := range t.children {
			if c.Status() == StatusNotStarted {
				c.Cancel()
			}
		}
	}
}

// Fail marks a not finished task as failed.
func (t *Task) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusFinished {
		panic(fmt.Errorf("%w: task %q with status %s can't be failed", ErrIllegalState, t.description, t.status))
	}
	t.status = StatusFailed
	t.finishTime = time.Now()
}

// Cancel marks a not finished task as canceled.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusFinished {
		panic(fmt.Errorf("%w: task %q with status %s can't be canceled", ErrIllegalState, t.description, t.status))
	}
	t.status = StatusCanceled
}

// NextSubtask returns the next not started child in declared order, or nil when
// all of them have been visited.
func (t *Task) NextSubtask() *Task {
	if s := t.Status(); s != StatusRunning {
		panic(fmt.Errorf("%w: can't retrieve next subtask, task %q is not running (%s)", ErrIllegalState, t.description, s))
	}

	for _, c := range t.children {
		if c.Status() == StatusRunning {
			panic(fmt.Errorf("%w: can't move to next subtask of %q, subtask %q is still running", ErrIllegalState, t.description, c.description))
		}
	}
	for _, c := range t.children {
		if c.Status() == StatusNotStarted {
			return c
		}
	}
	return nil
}

// SetVolume sets the expected units of a leaf task.
func (t *Task) SetVolume(volume int64) {
	if t.leaf == nil {
		panic(fmt.Errorf("%w: volume can only be set on leaf tasks, but task %q is not a leaf", ErrIllegalState, t.description))
	}
	if volume < 0 {
		volume = UnknownVolume
	}
	t.leaf.volume.Store(volume)
}

// CurrentVolume returns the volume of a leaf, UnknownVolume for composites.
func (t *Task) CurrentVolume() int64 {
	if t.leaf == nil {
		return UnknownVolume
	}
	return t.leaf.volume.Load()
}

// LogProgress adds progress units to a leaf task. Safe for concurrent use.
func (t *Task) LogProgress(value int64) {
	if t.leaf == nil {
		panic(fmt.Errorf("%w: progress can only be logged on leaf tasks, but task %q is not a leaf", ErrIllegalState, t.description))
	}
	t.leaf.progress.Add(value)
}

// Progress returns the logged progress of the task. Composite tasks aggregate
// their children, any child with unknown volume makes the total volume unknown.
func (t *Task) Progress() Progress {
	if t.leaf != nil {
		volume := t.leaf.volume.Load()
		progress := t.leaf.progress.Load()
		if volume != UnknownVolume && progress > volume {
			progress = volume
		}
		return Progress{Progress: progress, Volume: volume}
	}

	var progress, volume int64
	unknown := false
	for _, c := range t.children {
		// Skipped iterations are not part of the work anymore.
		if c.Status() == StatusCanceled {
			continue
		}
		p := c.Progress()
		progress += p.Progress
		if p.Volume == UnknownVolume {
			unknown = true
			continue
		}
		volume += p.Volume
	}
	if unknown {
		volume = UnknownVolume
	}
	return Progress{Progress: progress, Volume: volume}
}

// EstimatedMemoryRange returns the memory footprint attached to the task.
func (t *Task) EstimatedMemoryRange() memory.Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.memoryRange
}

// SetEstimatedMemoryRange attaches a memory footprint to the task.
func (t *Task) SetEstimatedMemoryRange(r memory.Range) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memoryRange = r
}

// MaxConcurrency returns the concurrency requested for the task.
func (t *Task) MaxConcurrency() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxConcurrency
}

// SetMaxConcurrency sets the task concurrency and propagates it to the
// children that don't have one.
func (t *Task) SetMaxConcurrency(concurrency int) {
	t.mu.Lock()
	t.maxConcurrency = concurrency
	t.mu.Unlock()

	for _, c := range t.children {
		if c.MaxConcurrency() == UnknownConcurrency {
			c.SetMaxConcurrency(concurrency)
		}
	}
}

// Render returns a debug view of the whole tree with the current statuses.
func (t *Task) Render() string {
	var b strings.Builder
	t.render(&b, 0)
	return b.String()
}

func (t *Task) render(b *strings.Builder, depth int) {
	if depth > 1 {
		b.WriteString(strings.Repeat("\t", depth-1))
	}
	if depth > 0 {
		b.WriteString("|-- ")
	}
	fmt.Fprintf(b, "%s(%s)\n", t.description, t.Status())

	for _, c := range t.children {
		c.render(b, depth+1)
	}
}

// Progress is the amount of units logged against the expected volume.
type Progress struct {
	Progress int64
	Volume   int64
}

// Relative returns the completed ratio in [0, 1]. The second value is false
// when the volume is unknown and the ratio can't be computed.
func (p Progress) Relative() (float64, bool) {
	if p.Volume == UnknownVolume {
		return 0, false
	}
	if p.Volume == 0 {
		return 1, true
	}
	return float64(p.Progress) / float64(p.Volume), true
}
