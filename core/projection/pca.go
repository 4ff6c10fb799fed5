package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// computePCA projects the rows of vecs onto their top principal
// components. Rows are mean-centered, decomposed with a thin SVD, and
// scored against the leading right singular vectors. Each component's
// sign is fixed so its largest-magnitude loading is positive, making the
// output independent of the decomposition's arbitrary sign choices.
func computePCA(vecs [][]float32, components int) ([][]float32, error) {
	n := len(vecs)
	if n == 0 {
		return nil, &InsufficientEntitiesError{Have: 0, Need: components + 1, Method: string(MethodPCA)}
	}
	dim := len(vecs[0])
	if dim < components {
		return nil, fmt.Errorf("cannot project %d-dimensional vectors onto %d components: %w", dim, components, ErrInvalidComponents)
	}

	mean := make([]float64, dim)
	for _, vec := range vecs {
		for j, v := range vec {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	data := make([]float64, n*dim)
	for i, vec := range vecs {
		row := data[i*dim : (i+1)*dim]
		for j, v := range vec {
			row[j] = float64(v) - mean[j]
		}
	}
	centered := mat.NewDense(n, dim, data)

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, ErrDecomposition
	}
	var v mat.Dense
	svd.VTo(&v)

	_, available := v.Dims()
	if available < components {
		return nil, &InsufficientEntitiesError{Have: n, Need: components + 1, Method: string(MethodPCA)}
	}

	// loadings[c] is the c-th right singular vector, sign-fixed.
	loadings := make([][]float64, components)
	for c := range components {
		col := make([]float64, dim)
		maxAbs, maxIdx := 0.0, 0
		for j := range dim {
			col[j] = v.At(j, c)
			if abs := math.Abs(col[j]); abs > maxAbs {
				maxAbs, maxIdx = abs, j
			}
		}
		if col[maxIdx] < 0 {
			for j := range col {
				col[j] = -col[j]
			}
		}
		loadings[c] = col
	}

	coords := make([][]float32, n)
	for i := range n {
		row := data[i*dim : (i+1)*dim]
		out := make([]float32, components)
		for c, col := range loadings {
			var score float64
			for j := range row {
				score += row[j] * col[j]
			}
			out[c] = float32(score)
		}
		coords[i] = out
	}
	return coords, nil
}
