package progress

import (
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/task"
)

// TaskRegistry publishes the task of a single job in a task store.
type TaskRegistry struct {
	username string
	jobID    model.JobID
	store    storage.TaskStore
}

// NewTaskRegistry returns a registry for the job of a user. A nil store makes
// the registry a no-op.
func NewTaskRegistry(username string, jobID model.JobID, store storage.TaskStore) *TaskRegistry {
	return &TaskRegistry{username: username, jobID: jobID, store: store}
}

// JobID returns the job of the registry.
func (r *TaskRegistry) JobID() model.JobID { return r.jobID }

// RegisterTask adds the task to the store.
func (r *TaskRegistry) RegisterTask(t *task.Task) {
	if r.store == nil {
		return
	}
	r.store.Add(r.username, r.jobID, t)
}

// UnregisterTask removes the job from the store.
func (r *TaskRegistry) UnregisterTask() {
	if r.store == nil {
		return
	}
	r.store.Remove(r.username, r.jobID)
}

// ContainsTask returns true if the task is the one registered for the job.
func (r *TaskRegistry) ContainsTask(t *task.Task) bool {
	if r.store == nil {
		return false
	}
	ut, ok := r.store.Query(r.username, r.jobID)
	return ok && ut.Task == t
}

// TaskRegistryFactory creates the registry of each tracked job.
type TaskRegistryFactory interface {
	NewInstance(jobID model.JobID) *TaskRegistry
}

// TaskRegistryFactoryFunc is a helper to create factories from functions.
type TaskRegistryFactoryFunc func(jobID model.JobID) *TaskRegistry

func (f TaskRegistryFactoryFunc) NewInstance(jobID model.JobID) *TaskRegistry { return f(jobID) }

// NewLocalTaskRegistryFactory returns a factory bound to a user and a store.
func NewLocalTaskRegistryFactory(username string, store storage.TaskStore) TaskRegistryFactory {
	return TaskRegistryFactoryFunc(func(jobID model.JobID) *TaskRegistry {
		return NewTaskRegistry(username, jobID, store)
	})
}

// EmptyTaskRegistryFactory creates registries that don't publish anything.
var EmptyTaskRegistryFactory = TaskRegistryFactoryFunc(func(jobID model.JobID) *TaskRegistry {
	return NewTaskRegistry("", jobID, nil)
})
