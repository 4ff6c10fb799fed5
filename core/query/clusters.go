package query

import (
	"context"
	"math"
	"math/rand"

	"github.com/prismatic-systems/raywalk/core/vecmath"
)

// convergenceThreshold is the relative objective improvement below which
// a k-means run stops: 1000 x float32 machine epsilon, the smallest
// change meaningful at this precision.
const convergenceThreshold = 1000 * 1.1920929e-7

// maxKMeansIterations is a safety limit; runs normally stop on
// convergence well before it.
const maxKMeansIterations = 500

// Clustering is one k-means partition of the snapshot.
type Clustering struct {
	// K is the number of clusters.
	K int `json:"k"`

	// Assignments maps each snapshot row (id order) to its cluster.
	Assignments []int `json:"assignments"`

	// Centroids are the final cluster centers in unified space.
	Centroids [][]float32 `json:"-"`

	// Inertia is the sum of squared distances to assigned centroids.
	Inertia float64 `json:"inertia"`
}

// Members returns the entity ids assigned to cluster c, in id order.
func (cl *Clustering) Members(ids []string, c int) []string {
	var out []string
	for i, a := range cl.Assignments {
		if a == c {
			out = append(out, ids[i])
		}
	}
	return out
}

// Clusters partitions the snapshot into k groups with seeded k-means.
// Restarts scale with log2(k) and the best run by inertia wins, so the
// result is deterministic for a fixed snapshot and seed.
func (e *Engine) Clusters(ctx context.Context, k int, seed int64) (*Clustering, error) {
	if k <= 0 {
		return nil, ErrInvalidClusterCount
	}
	n := e.snap.Len()
	if n < k {
		return nil, &InsufficientEntitiesError{Have: n, Need: k, Method: "kmeans"}
	}

	restarts := 1
	if k > 1 {
		restarts = int(math.Ceil(math.Log2(float64(k))))
	}

	rng := rand.New(rand.NewSource(seed))
	var best *Clustering
	for r := 0; r < restarts; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run := e.kmeansRun(ctx, k, rng)
		if run == nil {
			continue
		}
		if best == nil || run.Inertia < best.Inertia {
			best = run
		}
	}
	if best == nil {
		return nil, ctx.Err()
	}
	return best, nil
}

// kmeansRun executes one restart: seeded centroid initialization from
// distinct rows, Lloyd iterations until the relative objective
// improvement drops below the convergence threshold. Empty clusters are
// reseeded from the point farthest from its centroid.
func (e *Engine) kmeansRun(ctx context.Context, k int, rng *rand.Rand) *Clustering {
	n := e.snap.Len()
	dim := e.snap.Dim

	// Initialize from k distinct rows.
	perm := rng.Perm(n)
	centroids := make([][]float32, k)
	for c := range k {
		centroids[c] = make([]float32, dim)
		copy(centroids[c], e.snap.Vecs[perm[c]])
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([][]float32, k)
	for c := range k {
		sums[c] = make([]float32, dim)
	}

	prevObjective := math.MaxFloat64
	objective := math.MaxFloat64

	for iter := 0; iter < maxKMeansIterations; iter++ {
		if ctx.Err() != nil {
			return nil
		}

		// Assign each row to its nearest centroid; track the farthest
		// point for empty-cluster repair.
		objective = 0
		farthest, farthestDist := 0, -1.0
		for i := range n {
			bestC, bestD := 0, math.MaxFloat64
			for c := range k {
				d := vecmath.EuclideanDistance(e.snap.Vecs[i], centroids[c])
				d *= d
				if d < bestD {
					bestC, bestD = c, d
				}
			}
			assignments[i] = bestC
			objective += bestD
			if bestD > farthestDist {
				farthest, farthestDist = i, bestD
			}
		}

		// Recompute centroids.
		for c := range k {
			counts[c] = 0
			for j := range sums[c] {
				sums[c][j] = 0
			}
		}
		for i := range n {
			c := assignments[i]
			counts[c]++
			vecmath.AxpyInPlace(1, e.snap.Vecs[i], sums[c])
		}
		for c := range k {
			if counts[c] == 0 {
				// Reseed from the farthest point.
				copy(centroids[c], e.snap.Vecs[farthest])
				continue
			}
			inv := float32(1) / float32(counts[c])
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] * inv
			}
		}

		if prevObjective < math.MaxFloat64 {
			improvement := prevObjective - objective
			if objective > 0 && improvement/objective < convergenceThreshold {
				break
			}
		}
		prevObjective = objective
	}

	out := make([]int, n)
	copy(out, assignments)
	return &Clustering{
		K:           k,
		Assignments: out,
		Centroids:   centroids,
		Inertia:     objective,
	}
}
