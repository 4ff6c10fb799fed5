package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/projection"
	"github.com/prismatic-systems/raywalk/core/query"
)

// newScenarioGraph builds the seven-rays / seven-planes scenario: R4
// bridges P4 at full strength, R2 governs P2 at 0.6, every ray carries a
// distinct description, and everything else is isolated.
func newScenarioGraph(t *testing.T) *graph.Store {
	t.Helper()
	rayNames := []string{
		"will and power",
		"love and wisdom",
		"active intelligence",
		"harmony through conflict",
		"concrete knowledge and science",
		"devotion and idealism",
		"ceremonial order and magic",
	}
	st := graph.NewStore()
	for i := 1; i <= 7; i++ {
		require.NoError(t, st.AddEntity(graph.Entity{
			ID:          fmt.Sprintf("R%d", i),
			Kind:        graph.KindRay,
			Description: rayNames[i-1],
		}))
		require.NoError(t, st.AddEntity(graph.Entity{
			ID:   fmt.Sprintf("P%d", i),
			Kind: graph.KindPlane,
		}))
	}
	require.NoError(t, st.AddTriple(graph.Triple{Subject: "R4", Relation: graph.RelationBridges, Object: "P4", Strength: 1.0}))
	require.NoError(t, st.AddTriple(graph.Triple{Subject: "R2", Relation: graph.RelationGoverns, Object: "P2", Strength: 0.6}))
	return st
}

// scenarioConfig keeps training fast while leaving the bridge pair enough
// SGD steps to co-locate.
func scenarioConfig() Config {
	cfg := DefaultConfig()
	cfg.Alpha = 0.5
	cfg.Train = embed.TrainConfig{
		Dimensions:      32,
		WalkLength:      10,
		WalksPerEntity:  10,
		WindowSize:      4,
		Epochs:          8,
		NegativeSamples: 5,
		LearningRate:    0.05,
		Seed:            42,
	}
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	st := newScenarioGraph(t)
	runner := NewRunner(st, embed.NewLocalEncoder(embed.DefaultLocalDimension), scenarioConfig(), nil)

	snap, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 14, snap.Len())
	assert.Equal(t, 32, snap.Dim)

	t.Run("bridge edge dominates structural neighborhood", func(t *testing.T) {
		eng := query.New(snap)
		matches, err := eng.NearestNeighbors("R4", 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "P4", matches[0].ID,
			"the full-strength bridge must make P4 the closest entity to R4")
	})

	t.Run("analogy over concrete ids", func(t *testing.T) {
		eng := query.New(snap)
		matches, err := eng.Analogy("R1", "R2", "R3", 5)
		require.NoError(t, err)
		assert.NotEmpty(t, matches)
		for _, m := range matches {
			assert.NotContains(t, []string{"R1", "R2", "R3"}, m.ID)
		}
	})

	t.Run("entities without text record effective alpha one", func(t *testing.T) {
		for i := range snap.Len() {
			if snap.Kinds[i] == graph.KindPlane {
				assert.Equal(t, 1.0, snap.EffectiveAlpha[i],
					"plane %s has no description", snap.IDs[i])
			} else {
				assert.Equal(t, 0.5, snap.EffectiveAlpha[i])
			}
		}
	})

	t.Run("projection covers every entity", func(t *testing.T) {
		eng, err := projection.NewEngine(0, nil)
		require.NoError(t, err)
		layout, err := eng.Project(context.Background(), snap, projection.Config{
			Method:     projection.MethodUMAP,
			Components: 2,
			Seed:       42,
			Neighbors:  5,
			Epochs:     30,
		})
		require.NoError(t, err)
		assert.Len(t, layout.Coords, 14)
	})
}

func TestRunDeterminism(t *testing.T) {
	cfg := scenarioConfig()

	first, err := NewRunner(newScenarioGraph(t), embed.NewLocalEncoder(embed.DefaultLocalDimension), cfg, nil).
		Run(context.Background())
	require.NoError(t, err)

	second, err := NewRunner(newScenarioGraph(t), embed.NewLocalEncoder(embed.DefaultLocalDimension), cfg, nil).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.IDs, second.IDs)
	assert.Equal(t, first.Vecs, second.Vecs, "two runs with equal inputs must match bit for bit")
	assert.NotEqual(t, first.Version, second.Version, "versions are unique per build")
}

func TestRefuseWithoutRetraining(t *testing.T) {
	st := newScenarioGraph(t)
	runner := NewRunner(st, &countingEncoder{inner: embed.NewLocalEncoder(embed.DefaultLocalDimension)}, scenarioConfig(), nil)

	snap, err := runner.Run(context.Background())
	require.NoError(t, err)
	enc := runner.encoder.(*countingEncoder)
	callsAfterBuild := enc.calls

	refused, err := runner.Refuse(snap, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0.8, refused.Alpha)
	assert.Equal(t, callsAfterBuild, enc.calls, "refusing must not re-invoke the encoder")
	assert.Equal(t, snap.IDs, refused.IDs)

	// Rays carry semantic vectors, so shifting alpha moves their unified
	// vectors; structural-only planes are direction-invariant.
	i, ok := snap.Index("R1")
	require.True(t, ok)
	assert.NotEqual(t, snap.Vecs[i], refused.Vecs[i])

	j, ok := snap.Index("P1")
	require.True(t, ok)
	assert.Equal(t, snap.Vecs[j], refused.Vecs[j])
}

func TestRunEmptyGraph(t *testing.T) {
	runner := NewRunner(graph.NewStore(), embed.NewLocalEncoder(8), DefaultConfig(), nil)
	_, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoEntities)
}

func TestRunCancellation(t *testing.T) {
	st := newScenarioGraph(t)
	cfg := scenarioConfig()
	cfg.Train.Epochs = 10000 // long enough that cancellation lands mid-training

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(st, embed.NewLocalEncoder(8), cfg, nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingEncoder counts EmbedBatch invocations around a real encoder.
type countingEncoder struct {
	inner embed.Encoder
	calls int
}

func (c *countingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEncoder) Dimension() int {
	return c.inner.Dimension()
}
