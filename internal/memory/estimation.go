package memory

import (
	"fmt"

	"github.com/slok/galgo/internal/model"
)

// Labels used by estimations to split long and short lived memory.
const (
	ResidentMemory  = "residentMemory"
	TemporaryMemory = "temporaryMemory"
)

// Estimation estimates the memory an algorithm will use before running it.
// Implementations must be pure and deterministic for the same inputs.
type Estimation interface {
	Description() string
	Estimate(dims model.GraphDimensions, concurrency model.Concurrency) Tree
}

// RangeFunc computes a range from the graph dimensions and the concurrency.
type RangeFunc func(dims model.GraphDimensions, concurrency model.Concurrency) Range

type leafEstimation struct {
	description string
	fn          RangeFunc
}

func (l leafEstimation) Description() string { return l.description }
func (l leafEstimation) Estimate(dims model.GraphDimensions, c model.Concurrency) Tree {
	return LeafTree(l.description, l.fn(dims, c))
}

// Fixed returns an estimation of a constant amount of bytes.
func Fixed(description string, bytes int64) Estimation {
	return FixedRange(description, Of(bytes))
}

// FixedRange returns an estimation of a constant range.
func FixedRange(description string, r Range) Estimation {
	return leafEstimation{description: description, fn: func(model.GraphDimensions, model.Concurrency) Range { return r }}
}

// OfDimensions returns an estimation computed from the graph dimensions.
func OfDimensions(description string, fn RangeFunc) Estimation {
	return leafEstimation{description: description, fn: fn}
}

type notEstimated struct{ description string }

func (n notEstimated) Description() string { return n.description }
func (n notEstimated) Estimate(model.GraphDimensions, model.Concurrency) Tree {
	return NotEstimatedTree(n.description)
}

// NotEstimated returns an estimation for algorithms that don't have one yet.
// The returned trees are marked so callers don't take their range as a real bound.
func NotEstimated(description string) Estimation {
	return notEstimated{description: description}
}

type compositeEstimation struct {
	description string
	components  []Estimation
}

func (c compositeEstimation) Description() string { return c.description }
func (c compositeEstimation) Estimate(dims model.GraphDimensions, conc model.Concurrency) Tree {
	trees := make([]Tree, 0, len(c.components))
	for _, e := range c.components {
		trees = append(trees, e.Estimate(dims, conc))
	}
	return SumTree(c.description, trees)
}

// Composite returns an estimation that sums all the components.
func Composite(description string, components ...Estimation) Estimation {
	return compositeEstimation{description: description, components: components}
}

type andThenEstimation struct {
	description string
	delegate    Estimation
	fn          func(r Range, dims model.GraphDimensions, c model.Concurrency) Range
}

func (a andThenEstimation) Description() string { return a.description }
func (a andThenEstimation) Estimate(dims model.GraphDimensions, c model.Concurrency) Tree {
	tree := a.delegate.Estimate(dims, c)
	t := NewTree(a.description, a.fn(tree.MemoryUsage(), dims, c), tree.components)
	t.notEstimated = tree.notEstimated
	return t
}

// AndThen transforms the range of a delegate estimation keeping its components.
func AndThen(description string, delegate Estimation, fn func(r Range, dims model.GraphDimensions, c model.Concurrency) Range) Estimation {
	return andThenEstimation{description: description, delegate: delegate, fn: fn}
}

// PerNode scales the delegate estimation by the graph node count.
func PerNode(description string, delegate Estimation) Estimation {
	return AndThen(description, delegate, func(r Range, dims model.GraphDimensions, _ model.Concurrency) Range {
		return r.Times(dims.NodeCount())
	})
}

// PerThread scales the delegate estimation by the concurrency.
func PerThread(description string, delegate Estimation) Estimation {
	return AndThen(description, delegate, func(r Range, _ model.GraphDimensions, c model.Concurrency) Range {
		return r.Times(int64(c.Value()))
	})
}

type setupEstimation struct {
	description string
	setup       func(dims model.GraphDimensions, c model.Concurrency) Estimation
}

func (s setupEstimation) Description() string { return s.description }
func (s setupEstimation) Estimate(dims model.GraphDimensions, c model.Concurrency) Tree {
	return s.setup(dims, c).Estimate(dims, c)
}

// Setup returns an estimation that is decided once the dimensions are known.
func Setup(description string, setup func(dims model.GraphDimensions, c model.Concurrency) Estimation) Estimation {
	return setupEstimation{description: description, setup: setup}
}

type maxEstimation struct {
	description string
	components  []Estimation
}

func (m maxEstimation) Description() string { return m.description }
func (m maxEstimation) Estimate(dims model.GraphDimensions, c model.Concurrency) Tree {
	trees := make([]Tree, 0, len(m.components))
	total := Empty()
	notEst := false
	for _, e := range m.components {
		t := e.Estimate(dims, c)
		trees = append(trees, t)
		total = Maximum(total, t.MemoryUsage())
		notEst = notEst || t.notEstimated
	}
	t := NewTree(m.description, total, trees)
	t.notEstimated = notEst
	return t
}

// Max returns an estimation of the element wise maximum of the components, used
// when only one of the components is alive at a time.
func Max(components ...Estimation) Estimation {
	description := "max"
	if len(components) == 2 {
		description = fmt.Sprintf("max of %s and %s", components[0].Description(), components[1].Description())
	}
	return maxEstimation{description: description, components: components}
}
