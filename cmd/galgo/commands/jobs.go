package commands

import (
	"github.com/alecthomas/kingpin/v2"
)

// NewJobsCommand returns the jobs parent command.
func NewJobsCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("jobs", "Inspect the jobs.")
}
