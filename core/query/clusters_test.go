package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/graph"
)

// newClusterEngine lays out two tight groups far apart so any sane
// k-means run separates them.
func newClusterEngine(t *testing.T) *Engine {
	t.Helper()
	snap := &fusion.Snapshot{
		Version: "cluster-test",
		Dim:     2,
		IDs:     []string{"left_1", "left_2", "left_3", "right_1", "right_2", "right_3"},
		Vecs: [][]float32{
			{0, 0}, {0.1, 0}, {0, 0.1},
			{10, 10}, {10.1, 10}, {10, 10.1},
		},
	}
	snap.Kinds = make([]graph.EntityKind, snap.Len())
	snap.EffectiveAlpha = make([]float64, snap.Len())
	return New(snap)
}

func TestClusters(t *testing.T) {
	ctx := context.Background()

	t.Run("separates well-spaced groups", func(t *testing.T) {
		e := newClusterEngine(t)
		cl, err := e.Clusters(ctx, 2, 42)
		require.NoError(t, err)
		require.Len(t, cl.Assignments, 6)

		left := cl.Assignments[0]
		right := cl.Assignments[3]
		assert.NotEqual(t, left, right, "the two groups must land in different clusters")
		for i := range 3 {
			assert.Equal(t, left, cl.Assignments[i])
			assert.Equal(t, right, cl.Assignments[i+3])
		}
	})

	t.Run("deterministic per seed", func(t *testing.T) {
		e := newClusterEngine(t)
		first, err := e.Clusters(ctx, 2, 42)
		require.NoError(t, err)
		second, err := e.Clusters(ctx, 2, 42)
		require.NoError(t, err)
		assert.Equal(t, first.Assignments, second.Assignments)
		assert.Equal(t, first.Inertia, second.Inertia)
	})

	t.Run("members listing", func(t *testing.T) {
		e := newClusterEngine(t)
		cl, err := e.Clusters(ctx, 2, 42)
		require.NoError(t, err)
		members := cl.Members(e.Snapshot().IDs, cl.Assignments[0])
		assert.ElementsMatch(t, []string{"left_1", "left_2", "left_3"}, members)
	})

	t.Run("rejects non-positive k", func(t *testing.T) {
		e := newClusterEngine(t)
		_, err := e.Clusters(ctx, 0, 42)
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})

	t.Run("rejects k above entity count", func(t *testing.T) {
		e := newClusterEngine(t)
		_, err := e.Clusters(ctx, 7, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientEntities)
		var insErr *InsufficientEntitiesError
		require.ErrorAs(t, err, &insErr)
		assert.Equal(t, 6, insErr.Have)
		assert.Equal(t, 7, insErr.Need)
	})

	t.Run("cancellation", func(t *testing.T) {
		e := newClusterEngine(t)
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Clusters(cancelled, 2, 42)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
