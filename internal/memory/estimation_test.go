package memory_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/model"
)

func TestSumTree(t *testing.T) {
	assert := assert.New(t)

	tree := memory.SumTree("parent", []memory.Tree{
		memory.LeafTree("a", memory.Of(5)),
		memory.LeafTree("b", memory.OfRange(7, 10)),
	})

	assert.Equal(memory.OfRange(12, 15), tree.MemoryUsage())
	assert.Len(tree.Components(), 2)
	assert.True(tree.Estimated())
}

func TestEstimations(t *testing.T) {
	dims := model.StaticGraphDimensions{Nodes: 10, Relationships: 100}

	tests := map[string]struct {
		estimation  memory.Estimation
		concurrency model.Concurrency
		expTree     memory.Tree
	}{
		"A fixed estimation should not depend on the dimensions": {
			estimation:  memory.Fixed("fixed", 42),
			concurrency: model.MustConcurrency(1),
			expTree:     memory.LeafTree("fixed", memory.Of(42)),
		},
		"A per node estimation should scale by the node count": {
			estimation:  memory.PerNode("per node", memory.Fixed("value", 8)),
			concurrency: model.MustConcurrency(1),
			expTree:     memory.NewTree("per node", memory.Of(80), nil),
		},
		"A per thread estimation should scale by the concurrency": {
			estimation:  memory.PerThread("per thread", memory.FixedRange("buffer", memory.OfRange(10, 20))),
			concurrency: model.MustConcurrency(4),
			expTree:     memory.NewTree("per thread", memory.OfRange(40, 80), nil),
		},
		"A max estimation should take the element wise maximum": {
			estimation: memory.Max(
				memory.FixedRange("a", memory.OfRange(10, 100)),
				memory.FixedRange("b", memory.OfRange(20, 50)),
			),
			concurrency: model.MustConcurrency(1),
			expTree: memory.NewTree("max of a and b", memory.OfRange(20, 100), []memory.Tree{
				memory.LeafTree("a", memory.OfRange(10, 100)),
				memory.LeafTree("b", memory.OfRange(20, 50)),
			}),
		},
		"A setup estimation should be decided with the dimensions": {
			estimation: memory.Setup("setup", func(dims model.GraphDimensions, _ model.Concurrency) memory.Estimation {
				return memory.Fixed("relationships", dims.RelationshipCount())
			}),
			concurrency: model.MustConcurrency(1),
			expTree:     memory.LeafTree("relationships", memory.Of(100)),
		},
		"A builder with fields should nest the composites and sum them": {
			estimation: memory.NewBuilder("root").
				StartField(memory.ResidentMemory).
				PerNode("scores", 8).
				EndField().
				StartField(memory.TemporaryMemory).
				Fixed("buffer", 20).
				Build(),
			concurrency: model.MustConcurrency(1),
			expTree: memory.NewTree("root", memory.Of(100), []memory.Tree{
				memory.NewTree(memory.ResidentMemory, memory.Of(80), []memory.Tree{
					memory.NewTree("scores", memory.Of(80), nil),
				}),
				memory.NewTree(memory.TemporaryMemory, memory.Of(20), []memory.Tree{
					memory.LeafTree("buffer", memory.Of(20)),
				}),
			}),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			gotTree := test.estimation.Estimate(dims, test.concurrency)

			opts := cmp.AllowUnexported(memory.Tree{}, memory.Range{})
			if diff := cmp.Diff(test.expTree, gotTree, opts); diff != "" {
				t.Errorf("unexpected tree (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEstimationsDeterministic(t *testing.T) {
	est := memory.NewBuilder("root").PerNode("a", 8).PerThread("b", memory.Fixed("b", 4)).Build()
	dims := model.StaticGraphDimensions{Nodes: 1000}
	c := model.MustConcurrency(8)

	t1 := est.Estimate(dims, c)
	t2 := est.Estimate(dims, c)
	assert.Equal(t, t1, t2)
}

func TestNotEstimated(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	est := memory.NewBuilder("root").
		Fixed("known", 10).
		Add(memory.NotEstimated("unknown")).
		Build()

	tree := est.Estimate(model.StaticGraphDimensions{}, model.MustConcurrency(1))
	assert.False(tree.Estimated())
	require.Len(tree.Components(), 2)
	assert.True(tree.Components()[0].Estimated())
	assert.False(tree.Components()[1].Estimated())
	assert.Contains(tree.Render(), "unknown: not estimated")
}

func TestTreeRender(t *testing.T) {
	tree := memory.NewTree("root", memory.OfRange(1024, 2048), []memory.Tree{
		memory.LeafTree("a", memory.Of(1024)),
		memory.NewTree("b", memory.OfRange(0, 1024), []memory.Tree{
			memory.LeafTree("c", memory.OfRange(0, 1024)),
		}),
	})

	exp := "root: [1.0 KiB ... 2.0 KiB]\n" +
		"|-- a: 1.0 KiB\n" +
		"|-- b: [0 Bytes ... 1.0 KiB]\n" +
		"    |-- c: [0 Bytes ... 1.0 KiB]\n"
	assert.Equal(t, exp, tree.Render())
}

func TestBuilderEndRootPanics(t *testing.T) {
	assert.Panics(t, func() { memory.NewBuilder("root").EndField() })
}
