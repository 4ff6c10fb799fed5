package projection

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/optimize"

	"github.com/prismatic-systems/raywalk/core/vecmath"
)

const (
	// umapNegativeSamples is the number of repulsive draws per edge
	// endpoint per epoch.
	umapNegativeSamples = 5

	// umapInitScale is the extent the initial layout is scaled to.
	umapInitScale = 10.0

	// umapGradClip bounds per-dimension gradient terms.
	umapGradClip = 4.0

	// Curve parameters for the default min_dist 0.1 / spread 1.0, used
	// when the fit does not converge.
	defaultCurveA = 1.576943460405378
	defaultCurveB = 0.8950608781227859
)

// umapEdge is one symmetrized fuzzy-graph edge, from < to.
type umapEdge struct {
	from   int
	to     int
	weight float64
}

// neighborCandidate is one kNN candidate during fuzzy graph construction.
type neighborCandidate struct {
	idx  int
	dist float64
}

// umapLayout embeds the vectors into cfg.Components dimensions: exact
// cosine kNN graph, smoothed into symmetric fuzzy weights, initialized
// from a scaled PCA, then refined by seeded single-threaded SGD with
// attractive edge forces and sampled repulsion. Identical inputs and
// seeds produce identical layouts.
func umapLayout(ctx context.Context, vecs [][]float32, cfg Config) ([][]float32, error) {
	n := len(vecs)
	edges := fuzzyGraph(vecs, cfg.Neighbors)

	init, err := computePCA(vecs, cfg.Components)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ys := scaleInit(init, cfg.Components, rng)

	a, b := fitCurveParams(cfg.MinDist, 1.0)

	epochs := cfg.Epochs
	for epoch := range epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lr := 1.0 - float64(epoch)/float64(epochs)

		for _, e := range edges {
			yi, yj := ys[e.from], ys[e.to]

			dsq := sqDist(yi, yj)
			if dsq > 0 {
				coef := (-2 * a * b * math.Pow(dsq, b-1)) / (1 + a*math.Pow(dsq, b))
				for d := range yi {
					g := clipGrad(coef*(yi[d]-yj[d])) * lr * e.weight
					yi[d] += g
					yj[d] -= g
				}
			}

			repel(ys, e.from, n, a, b, lr, rng)
			repel(ys, e.to, n, a, b, lr, rng)
		}
	}

	coords := make([][]float32, n)
	for i, y := range ys {
		row := make([]float32, len(y))
		for d, v := range y {
			row[d] = float32(v)
		}
		coords[i] = row
	}
	return coords, nil
}

// repel pushes ys[i] away from sampled points.
func repel(ys [][]float64, i, n int, a, b, lr float64, rng *rand.Rand) {
	yi := ys[i]
	for range umapNegativeSamples {
		t := rng.Intn(n)
		if t == i {
			continue
		}
		yt := ys[t]
		dsq := sqDist(yi, yt)

		if dsq > 0 {
			coef := (2 * b) / ((0.001 + dsq) * (1 + a*math.Pow(dsq, b)))
			for d := range yi {
				yi[d] += clipGrad(coef*(yi[d]-yt[d])) * lr
			}
			continue
		}
		// Coincident points have no direction; push a fixed step.
		for d := range yi {
			yi[d] += umapGradClip * lr
		}
	}
}

// fuzzyGraph builds the symmetrized fuzzy simplicial edge set from an
// exact kNN search. Edges are returned sorted by (from, to) so the SGD
// consumes rng draws in a stable order.
func fuzzyGraph(vecs [][]float32, k int) []umapEdge {
	n := len(vecs)
	mags := make([]float64, n)
	for i, v := range vecs {
		mags[i] = vecmath.Magnitude(v)
	}

	directed := make(map[[2]int]float64, n*k)

	candidates := make([]neighborCandidate, 0, n-1)
	for i := range n {
		candidates = candidates[:0]
		for j := range n {
			if j == i {
				continue
			}
			candidates = append(candidates, neighborCandidate{
				idx:  j,
				dist: vecmath.CosineDistance(vecs[i], vecs[j], mags[i], mags[j]),
			})
		}
		sort.Slice(candidates, func(x, y int) bool {
			if candidates[x].dist != candidates[y].dist {
				return candidates[x].dist < candidates[y].dist
			}
			return candidates[x].idx < candidates[y].idx
		})
		nearest := candidates[:min(k, len(candidates))]

		rho := 0.0
		for _, c := range nearest {
			if c.dist > 0 {
				rho = c.dist
				break
			}
		}
		sigma := smoothKNNSigma(nearest, rho, math.Log2(float64(max(len(nearest), 2))))

		for _, c := range nearest {
			w := 1.0
			if c.dist > rho && sigma > 0 {
				w = math.Exp(-(c.dist - rho) / sigma)
			}
			directed[[2]int{i, c.idx}] = w
		}
	}

	seen := make(map[[2]int]bool, len(directed))
	edges := make([]umapEdge, 0, len(directed))
	for key, wa := range directed {
		from, to := min(key[0], key[1]), max(key[0], key[1])
		pair := [2]int{from, to}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		wb := directed[[2]int{key[1], key[0]}]
		edges = append(edges, umapEdge{
			from:   from,
			to:     to,
			weight: wa + wb - wa*wb,
		})
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].from != edges[y].from {
			return edges[x].from < edges[y].from
		}
		return edges[x].to < edges[y].to
	})
	return edges
}

// smoothKNNSigma binary-searches the bandwidth that makes the smoothed
// neighbor weights sum to the target entropy.
func smoothKNNSigma(nearest []neighborCandidate, rho, target float64) float64 {
	lo, mid := 0.0, 1.0
	hi := math.Inf(1)

	for range 64 {
		var sum float64
		for _, c := range nearest {
			if c.dist <= rho {
				sum++
				continue
			}
			sum += math.Exp(-(c.dist - rho) / mid)
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return mid
}

// scaleInit spreads the initial layout to a fixed extent. A degenerate
// init (all points identical) falls back to seeded Gaussian placement.
func scaleInit(init [][]float32, components int, rng *rand.Rand) [][]float64 {
	n := len(init)
	ys := make([][]float64, n)

	var maxAbs float64
	for _, row := range init {
		for _, v := range row {
			if abs := math.Abs(float64(v)); abs > maxAbs {
				maxAbs = abs
			}
		}
	}

	for i := range ys {
		row := make([]float64, components)
		for d := range row {
			if maxAbs > 0 {
				row[d] = float64(init[i][d]) / maxAbs * umapInitScale
			} else {
				row[d] = rng.NormFloat64() * umapInitScale
			}
		}
		ys[i] = row
	}
	return ys
}

// fitCurveParams fits the differentiable curve 1/(1+a*d^(2b)) to the
// target membership decay for the given min_dist. The fit is a
// deterministic Nelder-Mead descent; failure falls back to the stock
// parameters for min_dist 0.1.
func fitCurveParams(minDist, spread float64) (float64, float64) {
	const samples = 300
	xs := make([]float64, samples)
	ts := make([]float64, samples)
	for i := range samples {
		x := 3 * spread * float64(i+1) / samples
		xs[i] = x
		if x < minDist {
			ts[i] = 1
		} else {
			ts[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b := p[0], p[1]
			if a <= 0 || b <= 0 {
				return math.MaxFloat64
			}
			var sum float64
			for i, x := range xs {
				fit := 1 / (1 + a*math.Pow(x, 2*b))
				diff := fit - ts[i]
				sum += diff * diff
			}
			return sum
		},
	}

	result, err := optimize.Minimize(problem, []float64{1, 1}, nil, &optimize.NelderMead{})
	if err != nil || result == nil || result.X[0] <= 0 || result.X[1] <= 0 {
		return defaultCurveA, defaultCurveB
	}
	return result.X[0], result.X[1]
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

func clipGrad(g float64) float64 {
	if g > umapGradClip {
		return umapGradClip
	}
	if g < -umapGradClip {
		return -umapGradClip
	}
	return g
}
