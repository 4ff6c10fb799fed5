package embed

import (
	"context"
	"math"
	"testing"
)

func TestLocalEncoder_Dimension(t *testing.T) {
	e := NewLocalEncoder(0)

	if e.Dimension() != DefaultLocalDimension {
		t.Errorf("Expected dimension %d, got %d", DefaultLocalDimension, e.Dimension())
	}

	if custom := NewLocalEncoder(32); custom.Dimension() != 32 {
		t.Errorf("Expected dimension 32, got %d", custom.Dimension())
	}
}

func TestLocalEncoder_Embed(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()

	vec, err := e.Embed(ctx, "the ray of love and wisdom")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(vec) != DefaultLocalDimension {
		t.Errorf("Expected dimension %d, got %d", DefaultLocalDimension, len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)

	if math.Abs(norm-1.0) > 0.001 {
		t.Errorf("Expected unit vector, got norm %f", norm)
	}
}

func TestLocalEncoder_Deterministic(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()
	text := "harmony through conflict and the buddhic plane"

	vec1, err := e.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	vec2, err := e.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	for i := range vec1 {
		if vec1[i] != vec2[i] {
			t.Fatalf("Expected identical vectors, diverged at %d: %v vs %v", i, vec1[i], vec2[i])
		}
	}
}

func TestLocalEncoder_DistinctTexts(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()

	vec1, _ := e.Embed(ctx, "the first ray of will and power")
	vec2, _ := e.Embed(ctx, "the kingdom of crystalline minerals")

	same := true
	for i := range vec1 {
		if vec1[i] != vec2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected different texts to produce different vectors")
	}
}

func TestLocalEncoder_SimilarTextsCloser(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()

	base, _ := e.Embed(ctx, "the ray of love and wisdom teaches compassion")
	near, _ := e.Embed(ctx, "the ray of love and wisdom teaches empathy")
	far, _ := e.Embed(ctx, "dense mineral structures of the physical world")

	simNear := dotF64(base, near)
	simFar := dotF64(base, far)

	if simNear <= simFar {
		t.Errorf("Expected overlapping texts to score higher: near %f, far %f", simNear, simFar)
	}
}

func TestSplitTokens(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"the Ray of Love-Wisdom", []string{"the", "ray", "of", "love", "wisdom"}},
		{"ray 4", []string{"ray", "4"}},
		{"a b c", nil},
		{"plane_7, astral", []string{"plane_7", "astral"}},
	}

	for _, tc := range cases {
		got := splitTokens(tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("splitTokens(%q) = %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitTokens(%q) = %v, want %v", tc.text, got, tc.want)
				break
			}
		}
	}
}

func TestLocalEncoder_NumeralsDistinguishLabels(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()

	vec4, _ := e.Embed(ctx, "ray 4")
	vec2, _ := e.Embed(ctx, "ray 2")

	// Short labels that differ only in a numeral must not collapse to a
	// near-identical vector, or the semantic side drowns out structure.
	if sim := dotF64(vec4, vec2); sim > 0.95 {
		t.Errorf("Expected numeral to separate labels, got similarity %f", sim)
	}
}

func TestLocalEncoder_EmbedBatch(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)
	ctx := context.Background()
	texts := []string{"first text", "second text", "third text"}

	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("Expected %d vectors, got %d", len(texts), len(batch))
	}

	for i, text := range texts {
		single, _ := e.Embed(ctx, text)
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("Batch vector %d differs from single embed at %d", i, j)
			}
		}
	}
}

func TestLocalEncoder_EmptyText(t *testing.T) {
	e := NewLocalEncoder(DefaultLocalDimension)

	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("Expected zero vector for empty text, got %v at %d", v, i)
		}
	}
}

func dotF64(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
