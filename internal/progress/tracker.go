package progress

import (
	"errors"

	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/task"
)

// ErrTrackerMisuse is the panic value wrapped when the begin/end subtask calls
// don't match the declared task tree. The tracker can't continue after it.
var ErrTrackerMisuse = errors.New("progress tracker misuse")

// Tracker drives a task tree through its lifecycle while an algorithm runs.
//
// Lifecycle calls (begin, end, set volume, release) must be serialized by the
// caller and respect LIFO order. LogProgress and LogSteps can be called
// concurrently from any number of workers.
type Tracker interface {
	// BeginSubtask starts the next not started task of the tree. The first call
	// starts the root task.
	BeginSubtask()
	BeginSubtaskWithDescription(expected string)
	BeginSubtaskWithVolume(volume int64)
	// EndSubtask finishes the current task and makes its parent current again.
	EndSubtask()
	EndSubtaskWithDescription(expected string)
	// EndSubtaskWithFailure fails the current task and makes its parent current again.
	EndSubtaskWithFailure()
	// AssertSubtask panics if the current task description doesn't contain expected.
	AssertSubtask(expected string)

	SetVolume(volume int64)
	CurrentVolume() int64
	// SetSteps splits the current task volume in steps, used with LogSteps.
	SetSteps(steps int64)
	LogSteps(steps int64)
	LogProgress(value int64)
	// LogProgressWithMessage logs progress and a message, "%d" in the template
	// is replaced by the value.
	LogProgressWithMessage(value int64, template string)

	LogDebug(msg string)
	LogInfo(msg string)
	LogWarning(msg string)

	SetEstimatedResourceFootprint(r memory.Range)
	RequestedConcurrency(c model.Concurrency)

	// Release ends the tracking session, any still open task is failed.
	Release()
}

// EmptyTracker is a tracker that ignores everything.
const EmptyTracker = emptyTracker(0)

type emptyTracker int

var _ Tracker = EmptyTracker

func (emptyTracker) BeginSubtask()                              {}
func (emptyTracker) BeginSubtaskWithDescription(string)         {}
func (emptyTracker) BeginSubtaskWithVolume(int64)               {}
func (emptyTracker) EndSubtask()                                {}
func (emptyTracker) EndSubtaskWithDescription(string)           {}
func (emptyTracker) EndSubtaskWithFailure()                     {}
func (emptyTracker) AssertSubtask(string)                       {}
func (emptyTracker) SetVolume(int64)                            {}
func (emptyTracker) CurrentVolume() int64                       { return task.UnknownVolume }
func (emptyTracker) SetSteps(int64)                             {}
func (emptyTracker) LogSteps(int64)                             {}
func (emptyTracker) LogProgress(int64)                          {}
func (emptyTracker) LogProgressWithMessage(int64, string)       {}
func (emptyTracker) LogDebug(string)                            {}
func (emptyTracker) LogInfo(string)                             {}
func (emptyTracker) LogWarning(string)                          {}
func (emptyTracker) SetEstimatedResourceFootprint(memory.Range) {}
func (emptyTracker) RequestedConcurrency(model.Concurrency)     {}
func (emptyTracker) Release()                                   {}
