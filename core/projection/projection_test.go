package projection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/fusion"
)

func makeSnapshot(version string, vecs [][]float32) *fusion.Snapshot {
	ids := make([]string, len(vecs))
	for i := range ids {
		ids[i] = fmt.Sprintf("entity_%02d", i)
	}
	return &fusion.Snapshot{
		Version: version,
		Dim:     len(vecs[0]),
		IDs:     ids,
		Vecs:    vecs,
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Method
		wantErr bool
	}{
		{name: "pca", input: "pca", want: MethodPCA},
		{name: "umap", input: "umap", want: MethodUMAP},
		{name: "empty defaults to umap", input: "", want: MethodUMAP},
		{name: "unknown", input: "tsne", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngineProject_PCA(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)

	snap := makeSnapshot("v1", twoClusterVecs())
	layout, err := engine.Project(context.Background(), snap, Config{
		Method:     MethodPCA,
		Components: 2,
		Seed:       42,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodPCA, layout.Method)
	assert.Equal(t, 2, layout.Components)
	assert.Equal(t, snap.IDs, layout.IDs)
	require.Len(t, layout.Coords, snap.Len())
	for i, c := range layout.Coords {
		assert.Len(t, c, 2, "row %d", i)
	}
}

func TestEngineProject_UMAP(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)

	snap := makeSnapshot("v1", twoClusterVecs())
	layout, err := engine.Project(context.Background(), snap, smallUMAPConfig(42))
	require.NoError(t, err)

	assert.Equal(t, MethodUMAP, layout.Method)
	require.Len(t, layout.Coords, snap.Len())
}

func TestEngineProject_CacheHit(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)
	snap := makeSnapshot("v1", twoClusterVecs())
	cfg := smallUMAPConfig(42)

	first, err := engine.Project(context.Background(), snap, cfg)
	require.NoError(t, err)
	second, err := engine.Project(context.Background(), snap, cfg)
	require.NoError(t, err)

	assert.Same(t, first, second, "identical request should hit the cache")

	otherSeed := cfg
	otherSeed.Seed = 7
	third, err := engine.Project(context.Background(), snap, otherSeed)
	require.NoError(t, err)
	assert.NotSame(t, first, third, "different seed is a different cache entry")
}

func TestEngineProject_NewVersionRecomputes(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)
	cfg := smallUMAPConfig(42)
	vecs := twoClusterVecs()

	first, err := engine.Project(context.Background(), makeSnapshot("v1", vecs), cfg)
	require.NoError(t, err)
	second, err := engine.Project(context.Background(), makeSnapshot("v2", vecs), cfg)
	require.NoError(t, err)

	assert.NotSame(t, first, second, "new snapshot version must not reuse cached layouts")
	for i := range first.Coords {
		assert.Equal(t, first.Coords[i], second.Coords[i],
			"same vectors and seed still produce the same layout (row %d)", i)
	}
}

func TestEngineProject_InsufficientEntities(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)

	snap := makeSnapshot("v1", [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})

	_, err = engine.Project(context.Background(), snap, Config{
		Method:     MethodUMAP,
		Components: 2,
		Neighbors:  15,
	})
	require.Error(t, err)

	var insErr *InsufficientEntitiesError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 3, insErr.Have)
	assert.Equal(t, 16, insErr.Need)
	assert.Equal(t, "umap", insErr.Method)
	assert.True(t, errors.Is(err, ErrInsufficientEntities))
}

func TestEngineProject_PCAMinimum(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)

	snap := makeSnapshot("v1", [][]float32{{1, 0, 0}, {0, 1, 0}})

	_, err = engine.Project(context.Background(), snap, Config{
		Method:     MethodPCA,
		Components: 2,
	})
	var insErr *InsufficientEntitiesError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 2, insErr.Have)
	assert.Equal(t, 3, insErr.Need)
}

func TestEngineProject_ComponentsValidation(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)
	snap := makeSnapshot("v1", twoClusterVecs())

	for _, components := range []int{1, 4, -2} {
		cfg := smallUMAPConfig(42)
		cfg.Components = components
		_, err := engine.Project(context.Background(), snap, cfg)
		assert.ErrorIs(t, err, ErrInvalidComponents, "components %d", components)
	}
}

func TestEngineProject_UnknownMethod(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)
	snap := makeSnapshot("v1", twoClusterVecs())

	_, err = engine.Project(context.Background(), snap, Config{Method: "tsne", Components: 2})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestEngineProject_ThreeComponents(t *testing.T) {
	engine, err := NewEngine(0, nil)
	require.NoError(t, err)
	snap := makeSnapshot("v1", twoClusterVecs())

	cfg := smallUMAPConfig(42)
	cfg.Components = 3
	layout, err := engine.Project(context.Background(), snap, cfg)
	require.NoError(t, err)
	for i, c := range layout.Coords {
		assert.Len(t, c, 3, "row %d", i)
	}
}
