package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
	"github.com/slok/galgo/internal/storage/sqlite/migrations"
	"github.com/slok/galgo/internal/task"
)

// RepositoryConfig is the configuration for the SQLite journal repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.JournalRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.JournalRepository = &Repository{}

// NewRepository creates a new SQLite repository, applying the pending migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// AddEvents stores the events in a single transaction. Events without ID get
// a new one.
func (r *Repository) AddEvents(ctx context.Context, events []storage.JobEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO job_events (id, type, username, job_id, description, status, progress, volume, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		id := e.ID
		if id == "" {
			id = ulid.Make().String()
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err := stmt.ExecContext(ctx, id, e.Type, e.Username, e.JobID, e.Description, e.Status, e.Progress, e.Volume, createdAt.UnixMilli())
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed: job_events.") {
				return fmt.Errorf("job event %s already exists: %w", id, model.ErrAlreadyExists)
			}
			return fmt.Errorf("could not insert job event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Added %d job events", len(events))
	return nil
}

// ListEvents returns the events matching the options, oldest first.
func (r *Repository) ListEvents(ctx context.Context, opts storage.ListEventsOpts) ([]storage.JobEvent, error) {
	query := `
		SELECT id, type, username, job_id, description, status, progress, volume, created_at
		FROM job_events
	`

	var where []string
	var args []any
	if opts.Username != "" {
		where = append(where, "username = ?")
		args = append(args, opts.Username)
	}
	if opts.JobID != "" {
		where = append(where, "job_id = ?")
		args = append(args, opts.JobID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query job events: %w", err)
	}
	defer rows.Close()

	events := []storage.JobEvent{}
	for rows.Next() {
		var e storage.JobEvent
		var eventType, jobID, status string
		var createdAt int64
		err := rows.Scan(&e.ID, &eventType, &e.Username, &jobID, &e.Description, &status, &e.Progress, &e.Volume, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		e.Type = storage.JobEventType(eventType)
		e.JobID = model.JobID(jobID)
		e.Status = task.Status(status)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}
