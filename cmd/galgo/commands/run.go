package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/alecthomas/units"
	"golang.org/x/sync/errgroup"

	"github.com/slok/galgo/internal/app/run"
	graphmemory "github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/model"
	storageio "github.com/slok/galgo/internal/storage/io"
	storagememory "github.com/slok/galgo/internal/storage/memory"
	"github.com/slok/galgo/internal/storage/sqlite"
	"github.com/slok/galgo/internal/termination"
	"github.com/slok/galgo/internal/utils/params"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file        string
	mode        string
	username    string
	params      []string
	memoryLimit units.Base2Bytes
	noJournal   bool
	format      string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run an algorithm over the graph of a run file.")
	c.Cmd.Flag("file", "Run file (YAML or HCL) with the graph and the algorithm execution.").Short('f').Required().StringVar(&c.file)
	c.Cmd.Flag("mode", "Execution mode, overrides the run file mode.").EnumVar(&c.mode,
		string(model.ExecutionModeStream), string(model.ExecutionModeStats), string(model.ExecutionModeMutate), string(model.ExecutionModeWrite))
	c.Cmd.Flag("user", "User that owns the job, overrides the run file user.").StringVar(&c.username)
	c.Cmd.Flag("config", "Algorithm parameter overriding the run file ones (key=value).").Short('c').StringsVar(&c.params)
	c.Cmd.Flag("memory-limit", "Reject executions estimated to need more memory (e.g 512MiB), 0 disables it.").Default("0").BytesVar(&c.memoryLimit)
	c.Cmd.Flag("no-journal", "Don't record the job in the journal.").BoolVar(&c.noJournal)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Load run file.
	path, err := filepath.Abs(c.file)
	if err != nil {
		return fmt.Errorf("invalid run file path: %w", err)
	}
	runCfg, err := storageio.NewRunFileRepository(os.DirFS(filepath.Dir(path))).GetRunConfig(ctx, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("could not load run file: %w", err)
	}

	overrides, err := params.ParseSpecs(c.params)
	if err != nil {
		return err
	}
	runCfg.Config = params.Merge(runCfg.Config, overrides)
	if c.mode != "" {
		runCfg.Mode = model.ExecutionMode(c.mode)
	}
	if c.username != "" {
		runCfg.Username = c.username
	}

	// Job tracking.
	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task store: %w", err)
	}

	var journal *sqlite.Journal
	if !c.noJournal {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.rootCmd.DBPath,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("could not create repository: %w", err)
		}
		defer repo.Close()

		journal, err = sqlite.NewJournal(sqlite.JournalConfig{
			Repository: repo,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("could not create journal: %w", err)
		}
		store.AddListener(journal)
	}

	catalog, err := graphmemory.NewCatalog(graphmemory.CatalogConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create catalog: %w", err)
	}

	svc, err := run.NewService(run.ServiceConfig{
		Catalog:     catalog,
		TaskStore:   store,
		MemoryLimit: int64(c.memoryLimit),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// The journal stores the events while the job runs, it stops when the job finishes.
	journalCtx, journalCancel := context.WithCancel(context.WithoutCancel(ctx))
	var g errgroup.Group
	if journal != nil {
		g.Go(func() error { return journal.Run(journalCtx) })
	}

	res, runErr := svc.Run(ctx, run.Request{
		Run:         runCfg,
		Termination: termination.NewContextFlag(ctx),
	})
	journalCancel()
	if err := g.Wait(); err != nil {
		logger.Warningf("Journal failed: %s", err)
	}
	if journal != nil && journal.Dropped() > 0 {
		logger.Warningf("%d job events were not recorded", journal.Dropped())
	}
	if runErr != nil {
		return fmt.Errorf("could not run algorithm: %w", runErr)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintRun(*res); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}
