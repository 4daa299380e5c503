package storage

import (
	"context"
	"time"

	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/task"
)

// UserTask is the task tree of a running job owned by a user.
type UserTask struct {
	Username string
	JobID    model.JobID
	Task     *task.Task
}

// TaskStore is the directory of the currently running tracked jobs.
// Implementations must be safe for concurrent use.
type TaskStore interface {
	Add(username string, jobID model.JobID, t *task.Task)
	Remove(username string, jobID model.JobID)
	Query(username string, jobID model.JobID) (*UserTask, bool)
	QueryAllForUser(username string) []UserTask
	QueryAll() []UserTask
	Clear()
	TaskCount() int
	AddListener(l TaskStoreListener)
}

// TaskStoreListener observes the task store mutations. Listeners are called
// synchronously on the mutating call path, so they must be fast, must not block
// and must not call back into the store.
type TaskStoreListener interface {
	OnTaskAdded(ut UserTask)
	OnTaskRemoved(ut UserTask)
	OnStoreCleared()
}

// JobEventType is the kind of change recorded for a job.
type JobEventType string

const (
	JobEventAdded   JobEventType = "added"
	JobEventRemoved JobEventType = "removed"
	JobEventCleared JobEventType = "cleared"
)

// JobEvent is a recorded change of the running jobs directory.
type JobEvent struct {
	ID          string
	Type        JobEventType
	Username    string
	JobID       model.JobID
	Description string
	Status      task.Status
	Progress    int64
	Volume      int64
	CreatedAt   time.Time
}

// JournalRepository persists the job events for later inspection.
type JournalRepository interface {
	AddEvents(ctx context.Context, events []JobEvent) error
	ListEvents(ctx context.Context, opts ListEventsOpts) ([]JobEvent, error)
}

// ListEventsOpts are the filters of the journal listing.
type ListEventsOpts struct {
	// Username filters the events of a single user when set.
	Username string
	// JobID filters the events of a single job when set.
	JobID model.JobID
	// Limit is the max number of events returned, 0 means unlimited.
	Limit int
}

// RunConfigRepository loads the run configurations of algorithm executions.
type RunConfigRepository interface {
	GetRunConfig(ctx context.Context, path string) (model.RunConfig, error)
}
