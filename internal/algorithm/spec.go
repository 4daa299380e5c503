package algorithm

import (
	"context"
	"fmt"
	"sort"

	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/termination"
)

// ExecutionContext is the request scoped information of a spec execution.
type ExecutionContext struct {
	Username    string
	JobID       model.JobID
	Mode        model.ExecutionMode
	Termination termination.Flag
}

// Spec is an algorithm bound to a graph, ready to be executed with a raw
// configuration in any of its supported modes.
type Spec interface {
	Name() string
	GraphName() string
	Modes() []model.ExecutionMode
	// Validate decodes and validates the configuration for the mode without
	// touching any graph.
	Validate(raw RawConfig, mode model.ExecutionMode) error
	Execute(ctx context.Context, p *Processor, raw RawConfig, ec ExecutionContext) (Output, error)
	// Estimate returns the memory estimation of an execution without executing it.
	Estimate(raw RawConfig, dims model.GraphDimensions) (memory.Tree, error)
}

type spec[C Config, R any] struct {
	graphName string
	algo      Algorithm[C, R]
	newConfig func() C
	modes     map[model.ExecutionMode]Mode[C, R, Output]
}

// NewSpec returns a spec of an algorithm. newConfig returns a configuration
// with the default values, modes are the supported execution modes.
func NewSpec[C Config, R any](graphName string, algo Algorithm[C, R], newConfig func() C, modes ...Mode[C, R, Output]) Spec {
	ms := make(map[model.ExecutionMode]Mode[C, R, Output], len(modes))
	for _, m := range modes {
		ms[m.kind] = m
	}

	return spec[C, R]{
		graphName: graphName,
		algo:      algo,
		newConfig: newConfig,
		modes:     ms,
	}
}

func (s spec[C, R]) Name() string      { return s.algo.Name() }
func (s spec[C, R]) GraphName() string { return s.graphName }

func (s spec[C, R]) Modes() []model.ExecutionMode {
	modes := make([]model.ExecutionMode, 0, len(s.modes))
	for m := range s.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// prepare resolves the mode and decodes the configuration, it has no side effects.
func (s spec[C, R]) prepare(raw RawConfig, mode model.ExecutionMode) (Mode[C, R, Output], C, error) {
	var cfg C
	if err := mode.Validate(); err != nil {
		return Mode[C, R, Output]{}, cfg, err
	}
	m, ok := s.modes[mode]
	if !ok {
		return Mode[C, R, Output]{}, cfg, model.NewConfigError("mode", "%s mode is not supported by %s", mode, s.algo.Name())
	}

	cfg = s.newConfig()
	if err := DecodeConfig(raw, &cfg); err != nil {
		return Mode[C, R, Output]{}, cfg, err
	}

	return m, cfg, nil
}

func (s spec[C, R]) Validate(raw RawConfig, mode model.ExecutionMode) error {
	_, cfg, err := s.prepare(raw, mode)
	if err != nil {
		return err
	}
	return validateForMode(cfg, mode)
}

func (s spec[C, R]) Execute(ctx context.Context, p *Processor, raw RawConfig, ec ExecutionContext) (Output, error) {
	mode, cfg, err := s.prepare(raw, ec.Mode)
	if err != nil {
		return Output{}, err
	}

	out, err := Process(ctx, p, Request[C]{
		GraphName:   s.graphName,
		Username:    ec.Username,
		JobID:       ec.JobID,
		Config:      cfg,
		Termination: ec.Termination,
	}, s.algo, mode)
	if err != nil {
		return Output{}, fmt.Errorf("%s failed: %w", s.algo.Name(), err)
	}

	return out, nil
}

func (s spec[C, R]) Estimate(raw RawConfig, dims model.GraphDimensions) (memory.Tree, error) {
	cfg, err := DecodeAndValidate(raw, s.newConfig())
	if err != nil {
		return memory.Tree{}, err
	}

	return s.algo.Estimation(cfg).Estimate(dims, cfg.Common().Concurrency()), nil
}
