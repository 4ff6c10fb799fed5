package embed

import (
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/prismatic-systems/raywalk/core/graph"
)

// walkGraph is an index-compressed adjacency view of the store used for
// walk generation. Edges are traversed in both directions; hop probability
// is proportional to merged edge strength.
type walkGraph struct {
	ids   []string
	hops  [][]hop
	total []float64
}

// hop is one outgoing transition with its cumulative strength. Cumulative
// sums make weighted sampling a single binary search.
type hop struct {
	idx int
	cum float64
}

func buildWalkGraph(st *graph.Store) (*walkGraph, error) {
	ids := st.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyGraph
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	wg := &walkGraph{
		ids:   ids,
		hops:  make([][]hop, len(ids)),
		total: make([]float64, len(ids)),
	}
	for i, id := range ids {
		neighbors, err := st.Neighbors(id)
		if err != nil {
			return nil, err
		}
		// Multi-relation pairs collapse into one hop with summed strength
		// so parallel edges raise the transition probability.
		byTarget := make(map[int]float64, len(neighbors))
		for _, n := range neighbors {
			byTarget[index[n.ID]] += n.Strength
		}

		targets := make([]int, 0, len(byTarget))
		for t := range byTarget {
			targets = append(targets, t)
		}
		sort.Ints(targets)

		var cum float64
		hops := make([]hop, 0, len(targets))
		for _, t := range targets {
			cum += byTarget[t]
			hops = append(hops, hop{idx: t, cum: cum})
		}
		wg.hops[i] = hops
		wg.total[i] = cum
	}
	return wg, nil
}

// generateWalks produces walksPerEntity walks from every entity. Each walk
// draws from its own rng seeded by (seed, entity, walk), so the corpus is
// identical no matter how the work is scheduled.
func (g *walkGraph) generateWalks(walksPerEntity, walkLength int, seed int64, parallelism int) [][]int {
	walks := make([][]int, len(g.ids)*walksPerEntity)

	var eg errgroup.Group
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}
	for entity := range g.ids {
		eg.Go(func() error {
			for w := range walksPerEntity {
				rng := rand.New(rand.NewSource(mixSeed(seed, entity, w)))
				walks[entity*walksPerEntity+w] = g.walk(entity, walkLength, rng)
			}
			return nil
		})
	}
	eg.Wait()
	return walks
}

// walk performs one strength-weighted random walk. Isolated entities yield
// a single-node walk.
func (g *walkGraph) walk(start, length int, rng *rand.Rand) []int {
	out := make([]int, 1, length)
	out[0] = start

	cur := start
	for len(out) < length {
		hops := g.hops[cur]
		if len(hops) == 0 {
			break
		}
		r := rng.Float64() * g.total[cur]
		i := sort.Search(len(hops), func(j int) bool { return hops[j].cum > r })
		if i == len(hops) {
			i = len(hops) - 1
		}
		cur = hops[i].idx
		out = append(out, cur)
	}
	return out
}

// mixSeed derives a per-walk seed from the base seed via splitmix64 so
// neighboring (entity, walk) pairs get decorrelated streams.
func mixSeed(base int64, a, b int) int64 {
	z := uint64(base) + 0x9E3779B97F4A7C15*uint64(a+1) + 0xBF58476D1CE4E5B9*uint64(b+1)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
