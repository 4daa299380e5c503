package lib

import (
	"context"

	"github.com/slok/galgo/internal/app/estimate"
)

// EstimateOpts are the options of a memory estimation.
type EstimateOpts struct {
	// Algorithm is the name of the algorithm, case insensitive.
	Algorithm string
	// GraphName estimates over a graph loaded by a previous [Client.Run].
	// When empty the Nodes and Relationships counts are used.
	GraphName     string
	Nodes         int64
	Relationships int64
	// Config has the algorithm parameters, missing ones use their defaults.
	Config map[string]any
}

// Estimate returns the memory an execution would need without running it.
func (c *Client) Estimate(ctx context.Context, opts EstimateOpts) (*Estimation, error) {
	res, err := c.estimateSvc.Estimate(ctx, estimate.Request{
		Algorithm:     opts.Algorithm,
		GraphName:     opts.GraphName,
		Nodes:         opts.Nodes,
		Relationships: opts.Relationships,
		Config:        opts.Config,
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalEstimation(*res)
	return &result, nil
}
