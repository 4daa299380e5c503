package progress

import (
	"math"
	"sync/atomic"

	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/partition"
)

// BatchingTracker wraps a Tracker and coalesces the progress logged by many
// workers, forwarding it to the wrapped tracker in multiples of the batch size.
// Lifecycle calls flush the pending progress first.
type BatchingTracker struct {
	delegate  Tracker
	batchSize int64
	pending   atomic.Int64
}

var _ Tracker = &BatchingTracker{}

// NewBatchingTracker returns a batching tracker sized for the volume and the
// concurrency of the tracked work.
func NewBatchingTracker(delegate Tracker, volume int64, concurrency model.Concurrency) *BatchingTracker {
	return NewBatchingTrackerWithBatchSize(delegate, partition.BatchSize(volume, concurrency))
}

// NewBatchingTrackerWithBatchSize returns a batching tracker with a fixed batch size.
func NewBatchingTrackerWithBatchSize(delegate Tracker, batchSize int64) *BatchingTracker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchingTracker{delegate: delegate, batchSize: batchSize}
}

// BatchSize returns the forwarding batch size.
func (b *BatchingTracker) BatchSize() int64 { return b.batchSize }

// Pending returns the logged progress not forwarded yet.
func (b *BatchingTracker) Pending() int64 { return b.pending.Load() }

// LogProgress accumulates the progress and forwards the whole batches.
func (b *BatchingTracker) LogProgress(value int64) {
	if batch := b.add(value); batch > 0 {
		b.delegate.LogProgress(batch)
	}
}

// LogProgressWithMessage accumulates the progress like LogProgress, the
// message is only logged with the forwarded batches.
func (b *BatchingTracker) LogProgressWithMessage(value int64, template string) {
	if batch := b.add(value); batch > 0 {
		b.delegate.LogProgressWithMessage(batch, template)
	}
}

// add accumulates the value and returns the whole batches to forward, 0 while
// the pending progress stays under the batch size.
func (b *BatchingTracker) add(value int64) int64 {
	if value <= 0 {
		return 0
	}

	for {
		old := b.pending.Load()
		total := saturatingAdd(old, value)
		if total < b.batchSize {
			if b.pending.CompareAndSwap(old, total) {
				return 0
			}
			continue
		}

		rest := total % b.batchSize
		if b.pending.CompareAndSwap(old, rest) {
			return total - rest
		}
	}
}

// Flush forwards all the pending progress.
func (b *BatchingTracker) Flush() {
	if v := b.pending.Swap(0); v > 0 {
		b.delegate.LogProgress(v)
	}
}

func (b *BatchingTracker) BeginSubtask() {
	b.Flush()
	b.delegate.BeginSubtask()
}

func (b *BatchingTracker) BeginSubtaskWithDescription(expected string) {
	b.Flush()
	b.delegate.BeginSubtaskWithDescription(expected)
}

func (b *BatchingTracker) BeginSubtaskWithVolume(volume int64) {
	b.Flush()
	b.delegate.BeginSubtaskWithVolume(volume)
}

func (b *BatchingTracker) EndSubtask() {
	b.Flush()
	b.delegate.EndSubtask()
}

func (b *BatchingTracker) EndSubtaskWithDescription(expected string) {
	b.Flush()
	b.delegate.EndSubtaskWithDescription(expected)
}

func (b *BatchingTracker) EndSubtaskWithFailure() {
	b.Flush()
	b.delegate.EndSubtaskWithFailure()
}

func (b *BatchingTracker) SetVolume(volume int64) {
	b.Flush()
	b.delegate.SetVolume(volume)
}

func (b *BatchingTracker) Release() {
	b.Flush()
	b.delegate.Release()
}

func (b *BatchingTracker) AssertSubtask(expected string) { b.delegate.AssertSubtask(expected) }
func (b *BatchingTracker) CurrentVolume() int64          { return b.delegate.CurrentVolume() }
func (b *BatchingTracker) SetSteps(steps int64)          { b.delegate.SetSteps(steps) }
func (b *BatchingTracker) LogSteps(steps int64)          { b.delegate.LogSteps(steps) }
func (b *BatchingTracker) LogDebug(msg string)           { b.delegate.LogDebug(msg) }
func (b *BatchingTracker) LogInfo(msg string)            { b.delegate.LogInfo(msg) }
func (b *BatchingTracker) LogWarning(msg string)         { b.delegate.LogWarning(msg) }

func (b *BatchingTracker) SetEstimatedResourceFootprint(r memory.Range) {
	b.delegate.SetEstimatedResourceFootprint(r)
}

func (b *BatchingTracker) RequestedConcurrency(c model.Concurrency) {
	b.delegate.RequestedConcurrency(c)
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
