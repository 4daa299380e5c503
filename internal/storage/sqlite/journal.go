package sqlite

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/storage"
)

// JournalConfig is the configuration of the job journal.
type JournalConfig struct {
	Repository storage.JournalRepository
	// BufferSize is the number of events that can wait to be stored, events
	// received while the buffer is full are dropped.
	BufferSize int
	// MaxBatch is the max number of events stored in a single write.
	MaxBatch int
	Logger   log.Logger
	TimeNow  func() time.Time
}

func (c *JournalConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = 100
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Journal"})
	return nil
}

// Journal is a task store listener that records the job changes in a
// repository. Store callbacks only enqueue the events, Run writes them.
type Journal struct {
	repo     storage.JournalRepository
	events   chan storage.JobEvent
	maxBatch int
	dropped  atomic.Int64
	logger   log.Logger
	timeNow  func() time.Time
}

var _ storage.TaskStoreListener = &Journal{}

// NewJournal returns a new job journal.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Journal{
		repo:     cfg.Repository,
		events:   make(chan storage.JobEvent, cfg.BufferSize),
		maxBatch: cfg.MaxBatch,
		logger:   cfg.Logger,
		timeNow:  cfg.TimeNow,
	}, nil
}

func (j *Journal) OnTaskAdded(ut storage.UserTask) {
	j.enqueue(j.newEvent(storage.JobEventAdded, &ut))
}

func (j *Journal) OnTaskRemoved(ut storage.UserTask) {
	j.enqueue(j.newEvent(storage.JobEventRemoved, &ut))
}

func (j *Journal) OnStoreCleared() {
	j.enqueue(j.newEvent(storage.JobEventCleared, nil))
}

// Dropped returns the number of events lost because the buffer was full.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

func (j *Journal) newEvent(t storage.JobEventType, ut *storage.UserTask) storage.JobEvent {
	e := storage.JobEvent{
		ID:        ulid.Make().String(),
		Type:      t,
		CreatedAt: j.timeNow().UTC(),
	}
	if ut == nil {
		return e
	}

	e.Username = ut.Username
	e.JobID = ut.JobID
	if ut.Task != nil {
		p := ut.Task.Progress()
		e.Description = ut.Task.Description()
		e.Status = ut.Task.Status()
		e.Progress = p.Progress
		e.Volume = p.Volume
	}
	return e
}

func (j *Journal) enqueue(e storage.JobEvent) {
	select {
	case j.events <- e:
	default:
		if j.dropped.Add(1) == 1 {
			j.logger.Warningf("Journal buffer is full, dropping job events")
		}
	}
}

// Run stores the enqueued events until the context is done, then it stores the
// already enqueued ones and returns.
func (j *Journal) Run(ctx context.Context) error {
	j.logger.Debugf("Journal started")
	for {
		select {
		case <-ctx.Done():
			j.flush(context.WithoutCancel(ctx))
			j.logger.Debugf("Journal stopped")
			return nil
		case e := <-j.events:
			batch := j.collect([]storage.JobEvent{e})
			j.write(ctx, batch)
		}
	}
}

// Flush stores all the already enqueued events.
func (j *Journal) Flush(ctx context.Context) { j.flush(ctx) }

func (j *Journal) flush(ctx context.Context) {
	for {
		batch := j.collect(nil)
		if len(batch) == 0 {
			return
		}
		j.write(ctx, batch)
	}
}

// collect appends the already enqueued events to batch without blocking.
func (j *Journal) collect(batch []storage.JobEvent) []storage.JobEvent {
	for len(batch) < j.maxBatch {
		select {
		case e := <-j.events:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

func (j *Journal) write(ctx context.Context, batch []storage.JobEvent) {
	if err := j.repo.AddEvents(ctx, batch); err != nil {
		j.logger.Errorf("Could not store %d job events: %s", len(batch), err)
	}
}
