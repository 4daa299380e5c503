package algorithm

import (
	"context"
	"iter"

	"github.com/slok/galgo/internal/graph"
	"github.com/slok/galgo/internal/model"
)

// BuildContext is what a mode builder gets to render the caller facing result.
type BuildContext[C Config, R any] struct {
	Resources graph.Resources
	Result    R
	Timings   Timings
	Config    C
	// NodePropertiesWritten is the number of values set by the side effect.
	NodePropertiesWritten int64
}

// SideEffectContext is what a side effect gets to apply the result.
type SideEffectContext[C Config, R any] struct {
	Resources graph.Resources
	Result    R
	Config    C
}

// SideEffect applies a computed result to the graph store, returning the number
// of updated elements.
type SideEffect[C Config, R any] func(ctx context.Context, sc SideEffectContext[C, R]) (int64, error)

// Mode is the rendering of an algorithm result for one of the execution
// modes. It can only be created with StreamMode, StatsMode, MutateMode and
// WriteMode.
type Mode[C Config, R, O any] struct {
	kind       model.ExecutionMode
	sideEffect SideEffect[C, R]
	build      func(b BuildContext[C, R]) O
}

// Kind returns the execution mode.
func (m Mode[C, R, O]) Kind() model.ExecutionMode { return m.kind }

// StreamResult is the lazy sequence of rows produced in stream mode.
type StreamResult[Row any] struct {
	Rows    iter.Seq[Row]
	Timings Timings
}

// MutateResult is the summary of the mutate and write modes.
type MutateResult struct {
	Property              string  `json:"property" yaml:"property"`
	NodePropertiesWritten int64   `json:"nodePropertiesWritten" yaml:"nodePropertiesWritten"`
	Timings               Timings `json:"timings" yaml:"timings"`
	// Summary is the algorithm specific part of the result.
	Summary any `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// StreamMode returns a mode that lazily produces one row per entity.
func StreamMode[C Config, R, Row any](build func(b BuildContext[C, R]) iter.Seq[Row]) Mode[C, R, StreamResult[Row]] {
	return Mode[C, R, StreamResult[Row]]{
		kind: model.ExecutionModeStream,
		build: func(b BuildContext[C, R]) StreamResult[Row] {
			return StreamResult[Row]{Rows: build(b), Timings: b.Timings}
		},
	}
}

// StatsMode returns a mode that produces a single summary.
func StatsMode[C Config, R, S any](build func(b BuildContext[C, R]) S) Mode[C, R, S] {
	return Mode[C, R, S]{
		kind:  model.ExecutionModeStats,
		build: build,
	}
}

// MutateMode returns a mode that applies the result into the in-memory graph
// with the side effect. summary can be nil.
func MutateMode[C Config, R any](sideEffect SideEffect[C, R], summary func(b BuildContext[C, R]) any) Mode[C, R, MutateResult] {
	return mutationMode(model.ExecutionModeMutate, sideEffect, summary)
}

// WriteMode returns a mode that persists the result with the side effect. At
// this moment the result has the same shape as the mutate mode.
func WriteMode[C Config, R any](sideEffect SideEffect[C, R], summary func(b BuildContext[C, R]) any) Mode[C, R, MutateResult] {
	return mutationMode(model.ExecutionModeWrite, sideEffect, summary)
}

func mutationMode[C Config, R any](kind model.ExecutionMode, sideEffect SideEffect[C, R], summary func(b BuildContext[C, R]) any) Mode[C, R, MutateResult] {
	return Mode[C, R, MutateResult]{
		kind:       kind,
		sideEffect: sideEffect,
		build: func(b BuildContext[C, R]) MutateResult {
			r := MutateResult{
				Property:              b.Config.Common().Property,
				NodePropertiesWritten: b.NodePropertiesWritten,
				Timings:               b.Timings,
			}
			if summary != nil {
				r.Summary = summary(b)
			}
			return r
		},
	}
}

// Output is the mode independent result of an execution.
type Output struct {
	Mode    model.ExecutionMode
	Timings Timings
	// Rows are the streamed rows, only on stream mode.
	Rows iter.Seq[any]
	// Summary is the single result of the rest of the modes.
	Summary any
}

// EraseStream converts a stream mode into a mode that returns an Output.
func EraseStream[C Config, R, Row any](m Mode[C, R, StreamResult[Row]]) Mode[C, R, Output] {
	return Mode[C, R, Output]{
		kind:       m.kind,
		sideEffect: m.sideEffect,
		build: func(b BuildContext[C, R]) Output {
			res := m.build(b)
			return Output{
				Mode:    m.kind,
				Timings: res.Timings,
				Rows: func(yield func(any) bool) {
					for row := range res.Rows {
						if !yield(row) {
							return
						}
					}
				},
			}
		},
	}
}

// EraseSummary converts a stats, mutate or write mode into a mode that returns
// an Output.
func EraseSummary[C Config, R, S any](m Mode[C, R, S]) Mode[C, R, Output] {
	return Mode[C, R, Output]{
		kind:       m.kind,
		sideEffect: m.sideEffect,
		build: func(b BuildContext[C, R]) Output {
			return Output{
				Mode:    m.kind,
				Timings: b.Timings,
				Summary: m.build(b),
			}
		},
	}
}

// WriteNodeValues is the side effect of algorithms computing one value per
// node, it sets the values as the configured node property.
func WriteNodeValues[C Config](ctx context.Context, sc SideEffectContext[C, []float64]) (int64, error) {
	if err := sc.Resources.Graph.WriteNodeProperty(sc.Config.Common().Property, sc.Result); err != nil {
		return 0, err
	}
	return int64(len(sc.Result)), nil
}
