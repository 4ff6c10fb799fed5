package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/graph"
)

func TestEmphasize(t *testing.T) {
	e := newTestEngine(t)

	t.Run("boost reorders results", func(t *testing.T) {
		plain, err := e.NearestNeighbors("a", 3)
		require.NoError(t, err)
		require.Equal(t, "b", plain[0].ID, "unboosted ranking sanity check")

		em := e.Emphasize(map[string]float64{"c": 100})
		boosted, err := em.NearestNeighbors("a", 3)
		require.NoError(t, err)
		assert.Equal(t, "c", boosted[0].ID, "a large boost must lift c to the top")
	})

	t.Run("never mutates the snapshot", func(t *testing.T) {
		idx, ok := e.Snapshot().Index("c")
		require.True(t, ok)
		before := make([]float32, e.Snapshot().Dim)
		copy(before, e.Snapshot().Vecs[idx])

		em := e.Emphasize(map[string]float64{"c": 100})
		_, err := em.NearestNeighbors("a", 3)
		require.NoError(t, err)

		assert.Equal(t, before, e.Snapshot().Vecs[idx],
			"boosting must never touch the underlying vectors")
	})

	t.Run("unknown ids in weights are ignored", func(t *testing.T) {
		em := e.Emphasize(map[string]float64{"ghost": 100})
		assert.Equal(t, 1.0, em.Boost("ghost"))

		plain, err := e.NearestNeighbors("a", 3)
		require.NoError(t, err)
		boosted, err := em.NearestNeighbors("a", 3)
		require.NoError(t, err)
		assert.Equal(t, plain, boosted)
	})

	t.Run("unlisted entities keep a neutral boost", func(t *testing.T) {
		em := e.Emphasize(map[string]float64{"c": 2})
		assert.Equal(t, 1.0, em.Boost("b"))
		assert.Equal(t, 2.0, em.Boost("c"))
	})

	t.Run("analogy rescoring", func(t *testing.T) {
		em := e.Emphasize(map[string]float64{"e": 0})
		matches, err := em.Analogy("a", "b", "c", 2)
		require.NoError(t, err)
		for _, m := range matches {
			if m.ID == "e" {
				assert.Zero(t, m.Score, "a zero boost zeroes the score")
			}
		}
	})

	t.Run("radius filter uses raw similarity", func(t *testing.T) {
		// d sits at distance 2; even a huge boost cannot pull it inside
		// a radius-1 query because the filter runs on raw scores.
		em := e.Emphasize(map[string]float64{"d": 100})
		matches, err := em.WithinRadius("a", 1)
		require.NoError(t, err)
		assert.NotContains(t, matchIDs(matches), "d")
	})

	t.Run("unknown query id", func(t *testing.T) {
		em := e.Emphasize(nil)
		_, err := em.NearestNeighbors("nope", 3)
		assert.ErrorIs(t, err, graph.ErrUnknownEntity)
	})
}
