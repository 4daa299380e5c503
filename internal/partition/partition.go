// Package partition splits the work of an algorithm in ranges and runs them
// in parallel.
package partition

import (
	"context"
	"fmt"
	"math/bits"

	"golang.org/x/sync/errgroup"

	"github.com/slok/galgo/internal/model"
)

// MaxBatchSize is the upper bound of BatchSize.
const MaxBatchSize int64 = 1 << 13

// BatchSize returns the amount of units a worker processes before reporting,
// so each worker reports around 100 times over the whole volume. The result is
// a power of two in [1, MaxBatchSize], unknown (negative) volumes return 1.
func BatchSize(volume int64, concurrency model.Concurrency) int64 {
	if volume <= 0 {
		return 1
	}

	base := volume / (100 * int64(concurrency.Value()))
	if base == 0 {
		return 1
	}

	size := int64(1) << bits.Len64(uint64(base-1))
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

// Range is a half open [Start, End) range of node or relationship ids.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of ids in the range.
func (r Range) Len() int64 { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Ranges splits total ids in consecutive ranges, one per worker, where each
// range has at least minBatch ids (except the last one).
func Ranges(total int64, concurrency model.Concurrency, minBatch int64) []Range {
	if total <= 0 {
		return nil
	}
	if minBatch < 1 {
		minBatch = 1
	}

	workers := int64(concurrency.Value())
	batch := (total + workers - 1) / workers
	if batch < minBatch {
		batch = minBatch
	}

	ranges := make([]Range, 0, (total+batch-1)/batch)
	for start := int64(0); start < total; start += batch {
		end := min(start+batch, total)
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Run executes fn for every range with at most concurrency ranges at the
// same time. The first error cancels the context passed to the rest of ranges
// and is returned.
func Run(ctx context.Context, ranges []Range, concurrency model.Concurrency, fn func(ctx context.Context, r Range) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency.Value())

	for _, r := range ranges {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, r)
		})
	}

	return g.Wait()
}
