package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/model"
	storagememory "github.com/slok/galgo/internal/storage/memory"
	"github.com/slok/galgo/internal/storage/sqlite"
)

type JobsHistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	username string
	jobID    string
	limit    int
	format   string
}

// NewJobsHistoryCommand returns the jobs history command.
func NewJobsHistoryCommand(rootCmd *RootCommand, jobsCmd *kingpin.CmdClause) *JobsHistoryCommand {
	c := &JobsHistoryCommand{rootCmd: rootCmd}

	c.Cmd = jobsCmd.Command("history", "Show the recorded job events.")
	c.Cmd.Flag("user", "Only the events of the user.").StringVar(&c.username)
	c.Cmd.Flag("job", "Only the events of the job.").StringVar(&c.jobID)
	c.Cmd.Flag("limit", "Max number of events, 0 shows all.").Default("50").IntVar(&c.limit)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c JobsHistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c JobsHistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// This process doesn't run jobs, the store is only required by the service.
	store, err := storagememory.NewTaskStore(storagememory.TaskStoreConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task store: %w", err)
	}

	svc, err := jobs.NewService(jobs.ServiceConfig{
		TaskStore: store,
		Journal:   repo,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	events, err := svc.History(ctx, jobs.HistoryRequest{
		Username: c.username,
		JobID:    model.JobID(c.jobID),
		Limit:    c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not get job history: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintHistory(events); err != nil {
		return fmt.Errorf("could not print job history: %w", err)
	}

	return nil
}
