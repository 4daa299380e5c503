package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/graph"
	"github.com/slok/galgo/internal/graph/memory"
	"github.com/slok/galgo/internal/model"
)

func TestNewGraph(t *testing.T) {
	tests := map[string]struct {
		nodeCount  int64
		edges      []graph.Edge
		expErr     error
		expTargets map[int64][]int64
	}{
		"A valid graph should keep the relationships per node.": {
			nodeCount: 3,
			edges:     []graph.Edge{{Source: 0, Target: 1}, {Source: 2, Target: 0}, {Source: 0, Target: 2}},
			expTargets: map[int64][]int64{
				0: {1, 2},
				1: {},
				2: {0},
			},
		},

		"A graph without relationships should be valid.": {
			nodeCount:  2,
			expTargets: map[int64][]int64{0: {}, 1: {}},
		},

		"Relationships out of range should fail.": {
			nodeCount: 2,
			edges:     []graph.Edge{{Source: 0, Target: 2}},
			expErr:    model.ErrInvalidGraph,
		},

		"Negative node count should fail.": {
			nodeCount: -1,
			expErr:    model.ErrInvalidGraph,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			g, err := memory.NewGraph("test", test.nodeCount, test.edges)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, int64(len(test.edges)), g.RelationshipCount())
			for node, exp := range test.expTargets {
				got := []int64{}
				g.ForEachRelationship(node, func(target int64) bool {
					got = append(got, target)
					return true
				})
				assert.Equal(t, exp, got)
				assert.Equal(t, int64(len(exp)), g.Degree(node))
			}
		})
	}
}

func TestGraphNodeProperties(t *testing.T) {
	g, err := memory.NewGraph("test", 2, nil)
	require.NoError(t, err)

	require.NoError(t, g.WriteNodeProperty("rank", []float64{0.5, 0.5}))
	assert.ErrorIs(t, g.WriteNodeProperty("rank", []float64{1, 1}), model.ErrAlreadyExists)
	assert.ErrorIs(t, g.WriteNodeProperty("degree", []float64{1}), model.ErrNotValid)

	values, ok := g.NodeProperty("rank")
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 0.5}, values)
	assert.Equal(t, []string{"rank"}, g.NodePropertyKeys())
}

func TestCatalog(t *testing.T) {
	c, err := memory.NewCatalog(memory.CatalogConfig{})
	require.NoError(t, err)

	g, err := memory.NewGraph("social", 1, nil)
	require.NoError(t, err)

	require.NoError(t, c.Put(g))
	assert.ErrorIs(t, c.Put(g), model.ErrAlreadyExists)

	got, err := c.Get(context.TODO(), "social")
	require.NoError(t, err)
	assert.Same(t, g, got)
	assert.Equal(t, []string{"social"}, c.List())

	_, err = c.Get(context.TODO(), "missing")
	assert.ErrorIs(t, err, model.ErrGraphNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, c.Drop("social"))
	assert.ErrorIs(t, c.Drop("social"), model.ErrGraphNotFound)
}

func TestCatalogReplace(t *testing.T) {
	c, err := memory.NewCatalog(memory.CatalogConfig{})
	require.NoError(t, err)

	g1, err := memory.NewGraph("social", 1, nil)
	require.NoError(t, err)
	g2, err := memory.NewGraph("social", 2, nil)
	require.NoError(t, err)

	assert.False(t, c.Replace(g1))
	assert.True(t, c.Replace(g2))

	got, err := c.Get(context.TODO(), "social")
	require.NoError(t, err)
	assert.Same(t, g2, got)
	assert.Equal(t, []string{"social"}, c.List())
}

func TestCatalogReplaceConcurrently(t *testing.T) {
	c, err := memory.NewCatalog(memory.CatalogConfig{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		g, err := memory.NewGraph("social", int64(i+1), nil)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Replace(g)
		}()
	}
	wg.Wait()

	got, err := c.Get(context.TODO(), "social")
	require.NoError(t, err)
	assert.Equal(t, "social", got.Name())
	assert.Equal(t, []string{"social"}, c.List())
}

func TestNewGraphFromSource(t *testing.T) {
	tests := map[string]struct {
		src    model.GraphSource
		expErr error
	}{
		"A source with properties should set them.": {
			src: model.GraphSource{
				Name:          "g",
				NodeCount:     3,
				Relationships: [][2]int64{{0, 1}, {1, 2}},
				Properties:    map[string][]float64{"seed": {1, 2, 3}},
			},
		},

		"Out of range relationships should fail.": {
			src: model.GraphSource{
				Name:          "g",
				NodeCount:     2,
				Relationships: [][2]int64{{0, 2}},
			},
			expErr: model.ErrInvalidGraph,
		},

		"Properties with a wrong length should fail.": {
			src: model.GraphSource{
				Name:       "g",
				NodeCount:  2,
				Properties: map[string][]float64{"seed": {1}},
			},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			g, err := memory.NewGraphFromSource(test.src)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, int64(2), g.RelationshipCount())
			values, ok := g.NodeProperty("seed")
			require.True(t, ok)
			assert.Equal(t, []float64{1, 2, 3}, values)
		})
	}
}
