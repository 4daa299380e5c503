package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/task"
)

// TaskStoreConfig is the configuration for the memory task store.
type TaskStoreConfig struct {
	Logger log.Logger
}

func (c *TaskStoreConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.MemoryTaskStore"})
	return nil
}

// TaskStore is an in-memory implementation of storage.TaskStore.
//
// Listeners are notified in registration order while the store lock is held.
type TaskStore struct {
	tasks     map[string]map[model.JobID]storage.UserTask
	listeners []storage.TaskStoreListener
	mu        sync.RWMutex
	logger    log.Logger
}

// NewTaskStore creates a new memory task store.
func NewTaskStore(cfg TaskStoreConfig) (*TaskStore, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &TaskStore{
		tasks:  make(map[string]map[model.JobID]storage.UserTask),
		logger: cfg.Logger,
	}, nil
}

// Add stores the task of a job, replacing any previous task of the same job.
func (s *TaskStore) Add(username string, jobID model.JobID, t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userTasks, ok := s.tasks[username]
	if !ok {
		userTasks = make(map[model.JobID]storage.UserTask)
		s.tasks[username] = userTasks
	}

	ut := storage.UserTask{Username: username, JobID: jobID, Task: t}
	userTasks[jobID] = ut
	s.logger.Debugf("Added task %q of job %s for user %s", t.Description(), jobID, username)

	for _, l := range s.listeners {
		s.notify(func() { l.OnTaskAdded(ut) })
	}
}

// Remove deletes the task of a job, missing jobs are ignored.
func (s *TaskStore) Remove(username string, jobID model.JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userTasks, ok := s.tasks[username]
	if !ok {
		return
	}
	ut, ok := userTasks[jobID]
	if !ok {
		return
	}

	delete(userTasks, jobID)
	if len(userTasks) == 0 {
		delete(s.tasks, username)
	}
	s.logger.Debugf("Removed task of job %s for user %s", jobID, username)

	for _, l := range s.listeners {
		s.notify(func() { l.OnTaskRemoved(ut) })
	}
}

// Query returns the task of a job.
func (s *TaskStore) Query(username string, jobID model.JobID) (*storage.UserTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ut, ok := s.tasks[username][jobID]
	if !ok {
		return nil, false
	}

	// Return a copy.
	utCopy := ut
	return &utCopy, true
}

// QueryAllForUser returns all the running tasks of a user sorted by job.
func (s *TaskStore) QueryAllForUser(username string) []storage.UserTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedTasks(s.tasks[username])
}

// QueryAll returns all the running tasks of all users.
func (s *TaskStore) QueryAll() []storage.UserTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []storage.UserTask{}
	for _, userTasks := range s.tasks {
		all = append(all, sortedTasks(userTasks)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Username != all[j].Username {
			return all[i].Username < all[j].Username
		}
		return all[i].JobID < all[j].JobID
	})
	return all
}

// Clear removes all the tasks.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]map[model.JobID]storage.UserTask)
	s.logger.Debugf("Task store cleared")

	for _, l := range s.listeners {
		s.notify(l.OnStoreCleared)
	}
}

// TaskCount returns the number of running tasks of all users.
func (s *TaskStore) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, userTasks := range s.tasks {
		count += len(userTasks)
	}
	return count
}

// AddListener registers a listener for the store mutations.
func (s *TaskStore) AddListener(l storage.TaskStoreListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

// notify runs a listener callback recovering its panics.
func (s *TaskStore) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Task store listener failed: %v", r)
		}
	}()
	fn()
}

func sortedTasks(userTasks map[model.JobID]storage.UserTask) []storage.UserTask {
	tasks := make([]storage.UserTask, 0, len(userTasks))
	for _, ut := range userTasks {
		tasks = append(tasks, ut)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].JobID < tasks[j].JobID })
	return tasks
}

var _ storage.TaskStore = &TaskStore{}
