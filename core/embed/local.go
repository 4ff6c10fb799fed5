package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/prismatic-systems/raywalk/core/vecmath"
)

// DefaultLocalDimension is the dimensionality of the built-in hash encoder.
const DefaultLocalDimension = 64

// Feature family weights. Tokens dominate because entity descriptions are
// short natural-language sentences; trigrams catch morphology and simhash
// adds a stable global signature.
const (
	localTokenWeight   = 0.45
	localTrigramWeight = 0.35
	localSimhashWeight = 0.20

	localTokenProbes   = 6
	localTrigramProbes = 4
	localSimhashBits   = 64
)

// LocalEncoder is a pure-Go feature-hashing text encoder. It needs no
// model files or network access and is fully deterministic: a given text
// maps to the same unit vector on every run and platform. Quality is well
// below a transformer model; it exists as the always-available default and
// as the fallback for the ONNX encoder.
type LocalEncoder struct {
	dimension int
}

// NewLocalEncoder creates a hash encoder with the given dimensionality.
// Non-positive dimensions fall back to DefaultLocalDimension.
func NewLocalEncoder(dimension int) *LocalEncoder {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalEncoder{dimension: dimension}
}

func (l *LocalEncoder) Dimension() int {
	return l.dimension
}

func (l *LocalEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	return l.encode(text), nil
}

func (l *LocalEncoder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = l.encode(text)
	}
	return out, nil
}

func (l *LocalEncoder) encode(text string) []float32 {
	vec := make([]float32, l.dimension)
	if strings.TrimSpace(text) == "" {
		return vec
	}

	l.scatterTokens(vec, splitTokens(text))
	l.scatterTrigrams(vec, charNgrams(text, 3))
	l.scatterSimhash(vec, text)

	vecmath.NormalizeInPlace(vec)
	return vec
}

// scatterTokens spreads term-frequency weighted word features across the
// vector. Each token touches localTokenProbes buckets with hash-derived
// signs.
func (l *LocalEncoder) scatterTokens(vec []float32, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	var norm float64
	for _, count := range tf {
		norm += float64(count * count)
	}
	norm = math.Sqrt(norm)

	for tok, count := range tf {
		h := hash64(tok)
		w := float32(localTokenWeight * float64(count) / norm)
		for probe, idx := range probeIndices(h, l.dimension, localTokenProbes) {
			vec[idx] += w * probeSign(h, probe)
		}
	}
}

func (l *LocalEncoder) scatterTrigrams(vec []float32, grams []string) {
	if len(grams) == 0 {
		return
	}

	w := float32(localTrigramWeight / math.Sqrt(float64(len(grams))))
	for _, g := range grams {
		h := hash64(g)
		for probe, idx := range probeIndices(h, l.dimension, localTrigramProbes) {
			vec[idx] += w * probeSign(h, probe)
		}
	}
}

// scatterSimhash folds a 64-bit simhash of the text into the vector so
// near-duplicate texts stay close even when their token sets differ.
func (l *LocalEncoder) scatterSimhash(vec []float32, text string) {
	sig := simhash(text)
	w := float32(localSimhashWeight / 8)

	for bit := range localSimhashBits {
		sign := float32(-1)
		if (sig>>bit)&1 == 1 {
			sign = 1
		}
		idx := (bit * l.dimension) / localSimhashBits
		span := max(l.dimension/localSimhashBits, 1)
		for j := range span {
			vec[(idx+j)%l.dimension] += w * sign
		}
	}
}

func simhash(text string) uint64 {
	grams := charNgrams(strings.ToLower(text), 3)
	var tally [localSimhashBits]int
	for _, g := range grams {
		h := hash64(g)
		for bit := range localSimhashBits {
			if (h>>bit)&1 == 1 {
				tally[bit]++
			} else {
				tally[bit]--
			}
		}
	}

	var sig uint64
	for bit, score := range tally {
		if score > 0 {
			sig |= 1 << bit
		}
	}
	return sig
}

// splitTokens lower-cases and splits on non-word runes. Single-letter
// tokens are dropped as noise, but single digits are kept: numerals are
// often the only thing that distinguishes short labels like "ray 4".
func splitTokens(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		tok := current.String()
		if len(tok) >= 2 || (len(tok) == 1 && tok[0] >= '0' && tok[0] <= '9') {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func charNgrams(text string, n int) []string {
	text = strings.ToLower(text)
	if len(text) < n {
		return nil
	}
	grams := make([]string, 0, len(text)-n+1)
	for i := 0; i+n <= len(text); i++ {
		grams = append(grams, text[i:i+n])
	}
	return grams
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// probeIndices walks an LCG from the feature hash to pick bucket indices.
func probeIndices(seed uint64, dim, count int) []int {
	indices := make([]int, count)
	state := seed
	for i := range count {
		state = state*6364136223846793005 + 1442695040888963407
		indices[i] = int(state % uint64(dim))
	}
	return indices
}

func probeSign(seed uint64, probe int) float32 {
	if (seed>>probe)&1 == 1 {
		return 1
	}
	return -1
}
