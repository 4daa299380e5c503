// Package termination has the cooperative cancellation flags checked by the
// algorithms while they compute.
package termination

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/slok/galgo/internal/model"
)

// Flag tells algorithms if they should keep running. It's shared by all the
// workers of a job.
type Flag interface {
	Running() bool
	// AssertRunning returns model.ErrTerminated when the job should stop.
	AssertRunning() error
}

// AlwaysRunning is a flag that never stops.
const AlwaysRunning = alwaysRunning(0)

type alwaysRunning int

func (alwaysRunning) Running() bool        { return true }
func (alwaysRunning) AssertRunning() error { return nil }

type contextFlag struct {
	ctx context.Context
}

// NewContextFlag returns a flag that stops when the context is done.
func NewContextFlag(ctx context.Context) Flag {
	return contextFlag{ctx: ctx}
}

func (c contextFlag) Running() bool { return c.ctx.Err() == nil }

func (c contextFlag) AssertRunning() error {
	if err := c.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrTerminated, err)
	}
	return nil
}

// Switch is a flag stopped manually.
type Switch struct {
	stopped atomic.Bool
}

// NewSwitch returns a running switch.
func NewSwitch() *Switch { return &Switch{} }

// Stop makes the flag stop, it's safe to call it many times.
func (s *Switch) Stop() { s.stopped.Store(true) }

func (s *Switch) Running() bool { return !s.stopped.Load() }

func (s *Switch) AssertRunning() error {
	if s.stopped.Load() {
		return model.ErrTerminated
	}
	return nil
}
