package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/storage/sqlite"
	"github.com/slok/galgo/internal/task"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func eventFixture(id string, t storage.JobEventType, username string, jobID model.JobID, at time.Time) storage.JobEvent {
	return storage.JobEvent{
		ID:          id,
		Type:        t,
		Username:    username,
		JobID:       jobID,
		Description: "PageRank",
		Status:      task.StatusRunning,
		Progress:    10,
		Volume:      100,
		CreatedAt:   at,
	}
}

func TestRepositoryEvents(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []storage.JobEvent{
		eventFixture("e1", storage.JobEventAdded, "alice", "job-1", t0),
		eventFixture("e2", storage.JobEventAdded, "bob", "job-2", t0.Add(time.Second)),
		eventFixture("e3", storage.JobEventRemoved, "alice", "job-1", t0.Add(2*time.Second)),
	}

	tests := map[string]struct {
		opts   storage.ListEventsOpts
		expIDs []string
	}{
		"Listing without filters should return all the events in order.": {
			opts:   storage.ListEventsOpts{},
			expIDs: []string{"e1", "e2", "e3"},
		},

		"Listing by user should return only the user events.": {
			opts:   storage.ListEventsOpts{Username: "alice"},
			expIDs: []string{"e1", "e3"},
		},

		"Listing by job should return only the job events.": {
			opts:   storage.ListEventsOpts{JobID: "job-2"},
			expIDs: []string{"e2"},
		},

		"Listing with a limit should return the oldest events.": {
			opts:   storage.ListEventsOpts{Limit: 2},
			expIDs: []string{"e1", "e2"},
		},

		"Listing a missing user should return nothing.": {
			opts:   storage.ListEventsOpts{Username: "carol"},
			expIDs: []string{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			assert := assert.New(t)

			repo := newRepo(t)
			err := repo.AddEvents(context.TODO(), events)
			require.NoError(err)

			got, err := repo.ListEvents(context.TODO(), test.opts)
			require.NoError(err)

			gotIDs := []string{}
			for _, e := range got {
				gotIDs = append(gotIDs, e.ID)
			}
			assert.Equal(test.expIDs, gotIDs)
		})
	}
}

func TestRepositoryEventFields(t *testing.T) {
	repo := newRepo(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	exp := eventFixture("e1", storage.JobEventAdded, "alice", "job-1", at)

	require.NoError(t, repo.AddEvents(context.TODO(), []storage.JobEvent{exp}))

	got, err := repo.ListEvents(context.TODO(), storage.ListEventsOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, exp, got[0])
}

func TestRepositoryAddEventsGeneratesIDs(t *testing.T) {
	repo := newRepo(t)

	err := repo.AddEvents(context.TODO(), []storage.JobEvent{
		{Type: storage.JobEventCleared},
		{Type: storage.JobEventCleared},
	})
	require.NoError(t, err)

	got, err := repo.ListEvents(context.TODO(), storage.ListEventsOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestRepositoryDuplicateEvent(t *testing.T) {
	repo := newRepo(t)
	e := eventFixture("e1", storage.JobEventAdded, "alice", "job-1", time.Now())

	require.NoError(t, repo.AddEvents(context.TODO(), []storage.JobEvent{e}))
	err := repo.AddEvents(context.TODO(), []storage.JobEvent{e})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestRepositoryPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e := eventFixture("e1", storage.JobEventAdded, "alice", "job-1", time.Now())

	repo, err := sqlite.NewRepository(context.TODO(), sqlite.RepositoryConfig{DBPath: dbPath})
	require.NoError(t, err)
	require.NoError(t, repo.AddEvents(context.TODO(), []storage.JobEvent{e}))
	require.NoError(t, repo.Close())

	// Reopening runs the migrations again without changes.
	repo, err = sqlite.NewRepository(context.TODO(), sqlite.RepositoryConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.ListEvents(context.TODO(), storage.ListEventsOpts{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewRepositoryInvalidConfig(t *testing.T) {
	_, err := sqlite.NewRepository(context.TODO(), sqlite.RepositoryConfig{})
	assert.Error(t, err)
}
