package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/alecthomas/units"

	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/utils/params"
)

type EstimateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	algorithm     string
	nodes         int64
	relationships int64
	params        []string
	memoryLimit   units.Base2Bytes
	format        string
}

// NewEstimateCommand returns the estimate command.
func NewEstimateCommand(rootCmd *RootCommand, app *kingpin.Application) *EstimateCommand {
	c := &EstimateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("estimate", "Estimate the memory an algorithm needs for a fictitious graph.")
	c.Cmd.Flag("algorithm", "Algorithm to estimate.").Short('a').Required().StringVar(&c.algorithm)
	c.Cmd.Flag("nodes", "Node count of the graph.").Required().Int64Var(&c.nodes)
	c.Cmd.Flag("relationships", "Relationship count of the graph.").Default("0").Int64Var(&c.relationships)
	c.Cmd.Flag("config", "Algorithm parameter (key=value).").Short('c').StringsVar(&c.params)
	c.Cmd.Flag("memory-limit", "Check the estimation against a memory limit (e.g 512MiB), 0 disables it.").Default("0").BytesVar(&c.memoryLimit)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c EstimateCommand) Name() string { return c.Cmd.FullCommand() }

func (c EstimateCommand) Run(ctx context.Context) error {
	config, err := params.ParseSpecs(c.params)
	if err != nil {
		return err
	}

	svc, err := estimate.NewService(estimate.ServiceConfig{
		MemoryLimit: int64(c.memoryLimit),
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Estimate(ctx, estimate.Request{
		Algorithm:     c.algorithm,
		Nodes:         c.nodes,
		Relationships: c.relationships,
		Config:        config,
	})
	if err != nil {
		return fmt.Errorf("could not estimate algorithm: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintEstimate(*res); err != nil {
		return fmt.Errorf("could not print estimation: %w", err)
	}

	return nil
}
