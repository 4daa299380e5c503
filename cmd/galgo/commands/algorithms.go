package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/galgo/internal/algo"
)

type AlgorithmsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewAlgorithmsCommand returns the algorithms command.
func NewAlgorithmsCommand(rootCmd *RootCommand, app *kingpin.Application) *AlgorithmsCommand {
	c := &AlgorithmsCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("algorithms", "List the available algorithms.")
	return c
}

func (c AlgorithmsCommand) Name() string { return c.Cmd.FullCommand() }

func (c AlgorithmsCommand) Run(ctx context.Context) error {
	p := newPrinter(formatTable, c.rootCmd.Stdout)
	for _, name := range algo.DefaultRegistry.Names() {
		if err := p.PrintMessage(name); err != nil {
			return fmt.Errorf("could not print algorithm: %w", err)
		}
	}
	return nil
}
