package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/projection"
)

func newFeedFixtures(t *testing.T) (*graph.Store, *projection.Layout) {
	t.Helper()
	st := graph.NewStore()
	require.NoError(t, st.AddEntity(graph.Entity{ID: "ray_4", Kind: graph.KindRay, Name: "Ray 4", Color: "#00ff00"}))
	require.NoError(t, st.AddEntity(graph.Entity{ID: "plane_4", Kind: graph.KindPlane, Name: "Buddhic", Color: "#0000ff"}))
	require.NoError(t, st.AddEntity(graph.Entity{ID: "quality_harmony", Kind: graph.KindQuality}))
	require.NoError(t, st.AddTriple(graph.Triple{Subject: "ray_4", Relation: graph.RelationBridges, Object: "plane_4", Strength: 1}))
	require.NoError(t, st.AddTriple(graph.Triple{Subject: "ray_4", Relation: graph.RelationEmbodies, Object: "quality_harmony", Strength: 0.5}))

	layout := &projection.Layout{
		Method:     projection.MethodPCA,
		Components: 2,
		IDs:        []string{"plane_4", "quality_harmony", "ray_4"},
		Coords:     [][]float32{{0, 1}, {2, 3}, {4, 5}},
	}
	return st, layout
}

func TestBuildFeed(t *testing.T) {
	st, layout := newFeedFixtures(t)

	t.Run("joins coordinates with display attributes", func(t *testing.T) {
		feed, err := BuildFeed(st, layout, "v1", nil, "", "")
		require.NoError(t, err)
		require.Len(t, feed.Entities, 3)
		require.Len(t, feed.Edges, 2)

		byID := make(map[string]FeedEntity)
		for _, e := range feed.Entities {
			byID[e.ID] = e
		}
		assert.Equal(t, []float32{4, 5}, byID["ray_4"].Coords)
		assert.Equal(t, "Ray 4", byID["ray_4"].Name)
		assert.Equal(t, "#00ff00", byID["ray_4"].Color)
		assert.Equal(t, FeedBaseSize, byID["ray_4"].Size)
		assert.Equal(t, FeedBaseOpacity, byID["ray_4"].Opacity)
	})

	t.Run("emphasis enlarges marked entities", func(t *testing.T) {
		feed, err := BuildFeed(st, layout, "v1", map[string]float64{"ray_4": 1.5}, "", "")
		require.NoError(t, err)
		for _, e := range feed.Entities {
			if e.ID == "ray_4" {
				assert.Equal(t, FeedEmphasizedSize, e.Size)
				assert.Equal(t, FeedFullOpacity, e.Opacity)
			} else {
				assert.Equal(t, FeedBaseSize, e.Size)
			}
		}
	})

	t.Run("edge colors blend endpoint colors by strength", func(t *testing.T) {
		feed, err := BuildFeed(st, layout, "v1", nil, "", "")
		require.NoError(t, err)
		for _, e := range feed.Edges {
			switch e.Object {
			case "plane_4":
				// Full strength pulls entirely to the object's color.
				assert.Equal(t, "#0000ff", e.Color)
				assert.Equal(t, string(graph.BandPrimaryChannel), e.Band)
			case "quality_harmony":
				assert.Empty(t, e.Color, "uncolored endpoint leaves the edge uncolored")
			}
		}
	})

	t.Run("kind glob filters entities and their edges", func(t *testing.T) {
		feed, err := BuildFeed(st, layout, "v1", nil, "ray", "")
		require.NoError(t, err)
		require.Len(t, feed.Entities, 1)
		assert.Equal(t, "ray_4", feed.Entities[0].ID)
		assert.Empty(t, feed.Edges, "edges to filtered-out entities are dropped")
	})

	t.Run("id glob filter", func(t *testing.T) {
		feed, err := BuildFeed(st, layout, "v1", nil, "", "*_4")
		require.NoError(t, err)
		assert.Len(t, feed.Entities, 2)
		assert.Len(t, feed.Edges, 1)
	})
}
