package query

import (
	"github.com/prismatic-systems/raywalk/core/graph"
)

// Emphasizer is a derived scorer: matched entities' scores are
// multiplied by per-entity boosts before ranking. The underlying
// snapshot is never modified, so emphasizers are cheap to build and
// discard per request.
type Emphasizer struct {
	engine *Engine
	boost  []float64
}

// Emphasize builds a derived scorer from entity boosts. Entities absent
// from weights keep a neutral boost of 1; ids unknown to the snapshot
// are ignored.
func (e *Engine) Emphasize(weights map[string]float64) *Emphasizer {
	boost := make([]float64, e.snap.Len())
	for i := range boost {
		boost[i] = 1
	}
	for id, w := range weights {
		if idx, ok := e.snap.Index(id); ok {
			boost[idx] = w
		}
	}
	return &Emphasizer{engine: e, boost: boost}
}

// Boost returns the multiplier applied to id, 1 for unknown ids.
func (em *Emphasizer) Boost(id string) float64 {
	idx, ok := em.engine.snap.Index(id)
	if !ok {
		return 1
	}
	return em.boost[idx]
}

// NearestNeighbors ranks like Engine.NearestNeighbors with boosted
// scores.
func (em *Emphasizer) NearestNeighbors(id string, k int) ([]Match, error) {
	e := em.engine
	idx, ok := e.snap.Index(id)
	if !ok {
		return nil, &graph.UnknownEntityError{ID: id}
	}
	if k <= 0 {
		return nil, nil
	}
	return e.nearest(e.snap.Vecs[idx], e.mags[idx], k, map[int]bool{idx: true}, em.boost), nil
}

// Analogy ranks like Engine.Analogy with boosted scores.
func (em *Emphasizer) Analogy(a, b, c string, k int) ([]Match, error) {
	matches, err := em.engine.Analogy(a, b, c, k)
	if err != nil {
		return nil, err
	}
	return em.rescore(matches), nil
}

// WithinRadius matches by raw cosine distance, then ranks the matches
// by boosted score.
func (em *Emphasizer) WithinRadius(id string, radius float64) ([]Match, error) {
	e := em.engine
	idx, ok := e.snap.Index(id)
	if !ok {
		return nil, &graph.UnknownEntityError{ID: id}
	}
	if radius < 0 {
		return nil, nil
	}
	matches := e.collect(e.snap.Vecs[idx], e.mags[idx], map[int]bool{idx: true}, em.boost, func(sim float64) bool {
		return 1-sim <= radius
	})
	return matches, nil
}

// rescore re-ranks already scored matches under the boosts.
func (em *Emphasizer) rescore(matches []Match) []Match {
	out := make([]Match, len(matches))
	copy(out, matches)
	for i := range out {
		if idx, ok := em.engine.snap.Index(out[i].ID); ok {
			out[i].Score *= em.boost[idx]
		}
	}
	sortMatches(out)
	return out
}
