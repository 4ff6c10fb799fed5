package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	entities := writeFile(t, "entities.yaml", `
- id: ray_1
  kind: ray
  name: Will
  color: "#ff0000"
  description: will and power
- id: plane_1
  kind: plane
  description: the physical plane
`)
	triples := writeFile(t, "triples.yaml", `
- subject: ray_1
  relation: bridges
  object: plane_1
  strength: 0.9
`)

	st, err := Load(entities, triples)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 1, st.TripleCount())

	e, err := st.Entity("ray_1")
	require.NoError(t, err)
	assert.Equal(t, KindRay, e.Kind)
	assert.Equal(t, "Will", e.Name)
	assert.Equal(t, "#ff0000", e.Color)
}

func TestLoadJSONL(t *testing.T) {
	entities := writeFile(t, "entities.jsonl", `
{"id": "ray_1", "kind": "ray", "description": "first"}
# comment lines and blanks are skipped

{"id": "ray_2", "kind": "ray", "description": "second"}
`)
	triples := writeFile(t, "triples.jsonl",
		`{"subject": "ray_1", "relation": "resonates_with", "object": "ray_2"}`)

	st, err := Load(entities, triples)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Len())

	ns, err := st.Neighbors("ray_1")
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, "ray_2", ns[0].ID)
	assert.Equal(t, DefaultStrength, ns[0].Strength, "unset strength defaults")
}

func TestLoadAbortsOnStructuralError(t *testing.T) {
	entities := writeFile(t, "entities.yaml", `
- id: ray_1
  kind: ray
- id: ray_1
  kind: plane
`)
	triples := writeFile(t, "triples.yaml", "[]\n")

	_, err := Load(entities, triples)
	assert.ErrorIs(t, err, ErrDuplicateEntity)
}

func TestLoadDanglingTriple(t *testing.T) {
	entities := writeFile(t, "entities.yaml", `
- id: ray_1
  kind: ray
`)
	triples := writeFile(t, "triples.yaml", `
- subject: ray_1
  relation: governs
  object: missing
`)

	t.Run("strict rejects", func(t *testing.T) {
		_, err := Load(entities, triples)
		assert.ErrorIs(t, err, ErrDanglingReference)
	})

	t.Run("placeholder option creates the endpoint", func(t *testing.T) {
		st, err := Load(entities, triples, WithPlaceholders())
		require.NoError(t, err)

		e, err := st.Entity("missing")
		require.NoError(t, err)
		assert.Equal(t, KindPlaceholder, e.Kind)
	})
}

func TestLoadUnsupportedExtension(t *testing.T) {
	entities := writeFile(t, "entities.csv", "id,kind\n")
	triples := writeFile(t, "triples.yaml", "[]\n")

	_, err := Load(entities, triples)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestViewFilters(t *testing.T) {
	st := NewStore()
	require.NoError(t, st.AddEntity(Entity{ID: "ray_1", Kind: KindRay}))
	require.NoError(t, st.AddEntity(Entity{ID: "ray_2", Kind: KindRay}))
	require.NoError(t, st.AddEntity(Entity{ID: "plane_1", Kind: KindPlane}))
	require.NoError(t, st.AddTriple(Triple{Subject: "ray_1", Relation: "bridges", Object: "plane_1", Strength: 1}))
	require.NoError(t, st.AddTriple(Triple{Subject: "ray_1", Relation: "resonates_with", Object: "ray_2", Strength: 0.5}))

	t.Run("kind glob drops cross-kind triples", func(t *testing.T) {
		v, err := st.View("ray", "")
		require.NoError(t, err)
		assert.Len(t, v.Entities, 2)
		require.Len(t, v.Triples, 1)
		assert.Equal(t, "ray_2", v.Triples[0].Object)
	})

	t.Run("id glob", func(t *testing.T) {
		v, err := st.View("", "ray_*")
		require.NoError(t, err)
		assert.Len(t, v.Entities, 2)
	})

	t.Run("empty patterns match everything", func(t *testing.T) {
		v, err := st.View("", "")
		require.NoError(t, err)
		assert.Len(t, v.Entities, 3)
		assert.Len(t, v.Triples, 2)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := st.View("[", "")
		assert.Error(t, err)
	})
}
