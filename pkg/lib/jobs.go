package lib

import (
	"context"

	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/model"
)

// RunningJobs returns the jobs being executed by the client, when username
// is set only the ones of the user.
func (c *Client) RunningJobs(ctx context.Context, username string) ([]Job, error) {
	js, err := c.jobsSvc.Running(ctx, jobs.RunningRequest{Username: username})
	if err != nil {
		return nil, mapError(err)
	}
	return fromInternalJobs(js), nil
}

// JobHistoryOpts filter the job history.
type JobHistoryOpts struct {
	Username string
	JobID    string
	// Limit is the max number of events, 0 returns all.
	Limit int
}

// JobHistory returns the recorded job events, oldest first. Pass nil opts
// for all the events.
//
// Events are stored asynchronously, the ones of the jobs that just finished
// could be missing until [Client.Close] is called.
func (c *Client) JobHistory(ctx context.Context, opts *JobHistoryOpts) ([]JobEvent, error) {
	if opts == nil {
		opts = &JobHistoryOpts{}
	}

	events, err := c.jobsSvc.History(ctx, jobs.HistoryRequest{
		Username: opts.Username,
		JobID:    model.JobID(opts.JobID),
		Limit:    opts.Limit,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return fromInternalJobEvents(events), nil
}
