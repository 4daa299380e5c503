package lib

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/galgo/internal/algo"
	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/conventions"
	graphmemory "github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/storage"
	storagememory "github.com/slok/galgo/internal/storage/memory"
	"github.com/slok/galgo/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} records the job history in
// ~/.galgo/galgo.db and doesn't limit the memory of the executions.
type Config struct {
	// DBPath is the SQLite job journal database path.
	// Default: ~/.galgo/galgo.db.
	DBPath string

	// DisableJournal doesn't record the job history, [Client.JobHistory]
	// returns [ErrNotValid] when set.
	DisableJournal bool

	// MemoryLimit rejects the executions estimated to need more bytes with
	// [ErrInsufficientMemory]. 0 disables the check.
	MemoryLimit int64

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" && !c.DisableJournal {
		home := homedir.HomeDir()
		if home == "" {
			return fmt.Errorf("could not get user home dir: %w", ErrNotValid)
		}
		c.DBPath = conventions.DBPath(home)
	}

	if c.MemoryLimit < 0 {
		return fmt.Errorf("memory limit can't be negative: %w", ErrNotValid)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for running graph algorithms
// programmatically.
//
// The graphs loaded by [Client.Run] stay in the client catalog until they are
// replaced or dropped, so they can be estimated by name. Create a Client with
// [New] and release its resources with [Client.Close]. A Client is safe for
// concurrent use.
type Client struct {
	catalog     *graphmemory.Catalog
	store       *storagememory.TaskStore
	runSvc      *run.Service
	estimateSvc *estimate.Service
	jobsSvc     *jobs.Service
	logger      log.Logger

	stopJournal context.CancelFunc
	journal     errgroup.Group
	closeFn     func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to store the pending job
// events and release the database connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := graphmemory.NewCatalog(graphmemory.CatalogConfig{Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create catalog: %w", err)
	}

	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create task store: %w", err)
	}

	c := &Client{
		catalog:     catalog,
		store:       store,
		logger:      cfg.Logger,
		stopJournal: func() {},
	}

	var repo storage.JournalRepository
	if !cfg.DisableJournal {
		sqliteRepo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}

		journal, err := sqlite.NewJournal(sqlite.JournalConfig{
			Repository: sqliteRepo,
			Logger:     cfg.Logger,
		})
		if err != nil {
			sqliteRepo.Close()
			return nil, fmt.Errorf("could not create journal: %w", err)
		}
		store.AddListener(journal)

		journalCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.journal.Go(func() error { return journal.Run(journalCtx) })
		c.stopJournal = cancel
		c.closeFn = sqliteRepo.Close
		repo = sqliteRepo
	}

	c.runSvc, err = run.NewService(run.ServiceConfig{
		Catalog:     catalog,
		Registry:    algo.DefaultRegistry,
		TaskStore:   store,
		MemoryLimit: cfg.MemoryLimit,
		Logger:      cfg.Logger,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("could not create run service: %w", err)
	}

	c.estimateSvc, err = estimate.NewService(estimate.ServiceConfig{
		Catalog:     catalog,
		Registry:    algo.DefaultRegistry,
		MemoryLimit: cfg.MemoryLimit,
		Logger:      cfg.Logger,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("could not create estimate service: %w", err)
	}

	c.jobsSvc, err = jobs.NewService(jobs.ServiceConfig{
		TaskStore: store,
		Journal:   repo,
		Logger:    cfg.Logger,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("could not create jobs service: %w", err)
	}

	return c, nil
}

// Close stores the pending job events and releases the resources held by the
// client. After Close returns, the client must not be used.
func (c *Client) Close() error {
	c.stopJournal()
	if err := c.journal.Wait(); err != nil {
		c.logger.Warningf("Journal failed: %s", err)
	}

	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Algorithms returns the names of the available algorithms.
func (c *Client) Algorithms() []string {
	return algo.DefaultRegistry.Names()
}

// DropGraph removes a loaded graph from the client catalog.
//
// Returns [ErrNotFound] if the graph is not loaded.
func (c *Client) DropGraph(ctx context.Context, name string) error {
	return mapError(c.catalog.Drop(name))
}
