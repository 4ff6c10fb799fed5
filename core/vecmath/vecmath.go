// Package vecmath provides the float32 vector kernels shared by the
// embedding, fusion, projection, and query layers.
package vecmath

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Dot computes the dot product of two vectors.
// Returns 0 if vectors have different lengths.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// Magnitude computes the L2 norm of a vector.
func Magnitude(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(float64(vek32.Dot(v, v)))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Uses pre-computed magnitudes for efficiency.
// Returns 0 if either magnitude is zero.
func CosineSimilarity(a, b []float32, magA, magB float64) float64 {
	if magA == 0 || magB == 0 {
		return 0
	}
	return float64(Dot(a, b)) / (magA * magB)
}

// CosineSimilarityVectors computes cosine similarity computing magnitudes.
// Less efficient than using pre-computed magnitudes.
func CosineSimilarityVectors(a, b []float32) float64 {
	return CosineSimilarity(a, b, Magnitude(a), Magnitude(b))
}

// CosineDistance computes the cosine distance between two vectors,
// 1 - cosine similarity, yielding a value in [0, 2].
// Returns 2.0 (maximum distance) if either magnitude is zero.
func CosineDistance(a, b []float32, magA, magB float64) float64 {
	if magA == 0 || magB == 0 {
		return 2.0
	}
	return 1.0 - CosineSimilarity(a, b, magA, magB)
}

// EuclideanDistance computes Euclidean distance between two vectors.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	if len(a) == 0 {
		return 0
	}
	return float64(vek32.Distance(a, b))
}

// NormalizeCopy returns a unit-length copy of the input vector along with
// the original magnitude. The input is not modified. A zero-magnitude
// vector is returned as an unchanged copy with magnitude 0.
func NormalizeCopy(v []float32) ([]float32, float64) {
	out := make([]float32, len(v))
	copy(out, v)
	mag := NormalizeInPlace(out)
	return out, mag
}

// NormalizeInPlace scales v to unit length and returns the original
// magnitude. A zero-magnitude vector is left unchanged.
func NormalizeInPlace(v []float32) float64 {
	mag := Magnitude(v)
	if mag == 0 {
		return 0
	}
	vek32.MulNumber_Inplace(v, float32(1.0/mag))
	return mag
}

// AxpyInPlace accumulates alpha*x into y. Vectors must share a length;
// mismatched inputs are left untouched.
func AxpyInPlace(alpha float32, x, y []float32) {
	if len(x) != len(y) || len(x) == 0 {
		return
	}
	if alpha == 1 {
		vek32.Add_Inplace(y, x)
		return
	}
	scaled := make([]float32, len(x))
	copy(scaled, x)
	vek32.MulNumber_Inplace(scaled, alpha)
	vek32.Add_Inplace(y, scaled)
}
