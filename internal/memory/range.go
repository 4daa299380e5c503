package memory

import (
	"fmt"
	"math"
)

// Range is a [min, max] bound of bytes expressing the uncertainty of an estimation.
//
// The zero value is the empty range (0 bytes).
type Range struct {
	min int64
	max int64
}

// Of returns a range where min and max are the same value.
func Of(bytes int64) Range {
	return OfRange(bytes, bytes)
}

// OfRange returns a range from min to max bytes. Negative values or min
// greater than max are programming errors and panic.
func OfRange(min, max int64) Range {
	if min < 0 || max < 0 {
		panic(fmt.Sprintf("memory range bounds must be non negative, got: [%d, %d]", min, max))
	}
	if max < min {
		panic(fmt.Sprintf("memory range max must be >= min, got: [%d, %d]", min, max))
	}
	return Range{min: min, max: max}
}

// Empty returns a 0 bytes range.
func Empty() Range { return Range{} }

// Min returns the lower bound in bytes.
func (r Range) Min() int64 { return r.min }

// Max returns the upper bound in bytes.
func (r Range) Max() int64 { return r.max }

// IsEmpty returns true when both bounds are 0.
func (r Range) IsEmpty() bool { return r.min == 0 && r.max == 0 }

// Add returns the pairwise sum of both ranges, used to combine independent memory contributions.
func (r Range) Add(other Range) Range {
	return Range{min: checkedAdd(r.min, other.min), max: checkedAdd(r.max, other.max)}
}

// AddBytes adds the same amount of bytes to both bounds.
func (r Range) AddBytes(bytes int64) Range {
	return r.Add(Of(bytes))
}

// Times scales both bounds, used to model per thread or per partition replication.
func (r Range) Times(n int64) Range {
	if n < 0 {
		panic(fmt.Sprintf("memory range can't be multiplied by a negative value: %d", n))
	}
	return Range{min: checkedMul(r.min, n), max: checkedMul(r.max, n)}
}

// Subtract removes the same amount of bytes from both bounds.
func (r Range) Subtract(bytes int64) Range {
	if bytes > r.min {
		panic(fmt.Sprintf("memory range underflow subtracting %d from %s", bytes, r))
	}
	return Range{min: r.min - bytes, max: r.max - bytes}
}

// Union returns the range that contains both ranges.
func (r Range) Union(other Range) Range {
	return Range{min: min(r.min, other.min), max: max(r.max, other.max)}
}

// Maximum returns the element wise maximum of both ranges.
func Maximum(a, b Range) Range {
	return Range{min: max(a.min, b.min), max: max(a.max, b.max)}
}

func (r Range) String() string {
	if r.min == r.max {
		return FormatBytes(r.min)
	}
	return fmt.Sprintf("[%s ... %s]", FormatBytes(r.min), FormatBytes(r.max))
}

func checkedAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		panic("memory range overflow while adding")
	}
	return a + b
}

func checkedMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		panic("memory range overflow while multiplying")
	}
	return a * b
}
