package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/task"
)

// ServiceConfig is the configuration for the jobs service.
type ServiceConfig struct {
	TaskStore storage.TaskStore
	// Journal has the job history, optional.
	Journal storage.JournalRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.TaskStore == nil {
		return fmt.Errorf("task store is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Jobs"})
	return nil
}

// Service inspects the running jobs and the job history.
type Service struct {
	store   storage.TaskStore
	journal storage.JournalRepository
	logger  log.Logger
}

// NewService creates a new jobs service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		store:   cfg.TaskStore,
		journal: cfg.Journal,
		logger:  cfg.Logger,
	}, nil
}

// Job is a snapshot of a running job.
type Job struct {
	Username    string
	JobID       model.JobID
	Description string
	Status      task.Status
	Progress    task.Progress
	StartTime   time.Time
	// Tree is the rendered task tree.
	Tree string
}

// RunningRequest filters the running jobs.
type RunningRequest struct {
	// Username returns only the jobs of the user when set.
	Username string
}

// Running returns the snapshots of the running jobs.
func (s *Service) Running(ctx context.Context, req RunningRequest) ([]Job, error) {
	var uts []storage.UserTask
	if req.Username != "" {
		uts = s.store.QueryAllForUser(req.Username)
	} else {
		uts = s.store.QueryAll()
	}

	jobs := make([]Job, 0, len(uts))
	for _, ut := range uts {
		jobs = append(jobs, Job{
			Username:    ut.Username,
			JobID:       ut.JobID,
			Description: ut.Task.Description(),
			Status:      ut.Task.Status(),
			Progress:    ut.Task.Progress(),
			StartTime:   ut.Task.StartTime(),
			Tree:        ut.Task.Render(),
		})
	}

	s.logger.Debugf("found %d running jobs", len(jobs))
	return jobs, nil
}

// HistoryRequest filters the job history.
type HistoryRequest struct {
	Username string
	JobID    model.JobID
	Limit    int
}

// History returns the recorded job events, oldest first.
func (s *Service) History(ctx context.Context, req HistoryRequest) ([]storage.JobEvent, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("job journal is not configured: %w", model.ErrNotValid)
	}
	if req.Limit < 0 {
		return nil, model.NewConfigError("limit", "can't be negative, got: %d", req.Limit)
	}

	events, err := s.journal.ListEvents(ctx, storage.ListEventsOpts{
		Username: req.Username,
		JobID:    req.JobID,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list job events: %w", err)
	}

	return events, nil
}
