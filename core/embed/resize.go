package embed

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ResizeMethod selects how semantic vectors are brought to the structural
// width before fusion.
type ResizeMethod string

const (
	// ResizeTruncate copies the leading components and zero-pads any
	// missing tail.
	ResizeTruncate ResizeMethod = "truncate"

	// ResizeProject applies a seeded orthonormal projection, mixing every
	// input component into the target space.
	ResizeProject ResizeMethod = "project"
)

// ParseResizeMethod validates a method name from configuration.
func ParseResizeMethod(s string) (ResizeMethod, error) {
	switch ResizeMethod(s) {
	case ResizeTruncate, ResizeProject:
		return ResizeMethod(s), nil
	case "":
		return ResizeTruncate, nil
	default:
		return "", &UnknownResizeMethodError{Method: s}
	}
}

// Resizer deterministically maps vectors from one width to another. The
// same (method, in, out, seed) always yields the same mapping, which the
// snapshot records for reproducibility audits.
type Resizer struct {
	method ResizeMethod
	in     int
	out    int
	seed   int64
	rows   [][]float64
}

// NewResizer builds the mapping. The projection matrix, when needed, is
// generated once up front.
func NewResizer(method ResizeMethod, in, out int, seed int64) (*Resizer, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("resize %d -> %d: %w", in, out, ErrInvalidDimension)
	}
	switch method {
	case ResizeTruncate, ResizeProject:
	default:
		return nil, &UnknownResizeMethodError{Method: string(method)}
	}

	r := &Resizer{method: method, in: in, out: out, seed: seed}
	if method == ResizeProject && in != out {
		r.rows = projectionRows(in, out, seed)
	}
	return r, nil
}

// Method returns the configured method.
func (r *Resizer) Method() ResizeMethod {
	return r.method
}

// Apply maps one vector to the target width. The input is never modified;
// equal widths return a plain copy.
func (r *Resizer) Apply(vec []float32) []float32 {
	out := make([]float32, r.out)
	if r.in == r.out || r.method == ResizeTruncate {
		copy(out, vec)
		return out
	}

	for i, row := range r.rows {
		var sum float64
		for j, w := range row {
			sum += w * float64(vec[j])
		}
		out[i] = float32(sum)
	}
	return out
}

// ApplySpace resizes every vector of a space.
func (r *Resizer) ApplySpace(s *Space) *Space {
	ids := s.IDs()
	vecs := make([][]float32, len(ids))
	for i := range ids {
		vecs[i] = r.Apply(s.At(i))
	}
	return NewSpace(r.out, ids, vecs)
}

// projectionRows generates out rows of length in. The first min(in, out)
// rows are orthonormalized by Gram-Schmidt; any surplus rows beyond the
// input rank stay as plain unit Gaussians.
func projectionRows(in, out int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, out)
	for i := range rows {
		var orthoAgainst [][]float64
		if i < in {
			orthoAgainst = rows[:i]
		}
		rows[i] = nextProjectionRow(orthoAgainst, in, rng)
	}
	return rows
}

func nextProjectionRow(existing [][]float64, in int, rng *rand.Rand) []float64 {
	const maxAttempts = 100

	for range maxAttempts {
		vec := make([]float64, in)
		for j := range vec {
			vec[j] = rng.NormFloat64()
		}
		for _, e := range existing {
			floats.AddScaled(vec, -floats.Dot(vec, e), e)
		}
		norm := floats.Norm(vec, 2)
		if norm > 1e-9 {
			floats.Scale(1/norm, vec)
			return vec
		}
	}

	vec := make([]float64, in)
	vec[len(existing)%in] = 1
	return vec
}
