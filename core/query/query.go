// Package query answers similarity questions against an immutable
// unified snapshot. All operations are read-only and safe for concurrent
// use without locking.
package query

import (
	"sort"

	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/vecmath"
)

// Match is one scored query result.
type Match struct {
	ID    string           `json:"id"`
	Score float64          `json:"score"`
	Kind  graph.EntityKind `json:"kind,omitempty"`
}

// Engine runs similarity queries over one snapshot. Magnitudes are
// precomputed once; everything else is per-call state.
type Engine struct {
	snap *fusion.Snapshot
	mags []float64
}

// New creates an engine bound to a snapshot.
func New(snap *fusion.Snapshot) *Engine {
	mags := make([]float64, snap.Len())
	for i := range mags {
		mags[i] = vecmath.Magnitude(snap.Vecs[i])
	}
	return &Engine{snap: snap, mags: mags}
}

// Snapshot returns the snapshot the engine serves.
func (e *Engine) Snapshot() *fusion.Snapshot {
	return e.snap
}

// NearestNeighbors returns the k entities most similar to id, by
// descending cosine similarity with ties broken by id ascending. The
// entity itself is excluded. k above the population clamps; k <= 0
// returns nothing.
func (e *Engine) NearestNeighbors(id string, k int) ([]Match, error) {
	idx, ok := e.snap.Index(id)
	if !ok {
		return nil, &graph.UnknownEntityError{ID: id}
	}
	if k <= 0 {
		return nil, nil
	}
	return e.nearest(e.snap.Vecs[idx], e.mags[idx], k, map[int]bool{idx: true}, nil), nil
}

// Analogy answers "a is to b as c is to ?": the target vector is
// v(b) - v(a) + v(c), normalized, ranked by cosine similarity with a, b,
// and c excluded from the results.
func (e *Engine) Analogy(a, b, c string, k int) ([]Match, error) {
	var idxs [3]int
	for i, id := range []string{a, b, c} {
		idx, ok := e.snap.Index(id)
		if !ok {
			return nil, &graph.UnknownEntityError{ID: id}
		}
		idxs[i] = idx
	}
	if k <= 0 {
		return nil, nil
	}

	target := make([]float32, e.snap.Dim)
	copy(target, e.snap.Vecs[idxs[1]])
	vecmath.AxpyInPlace(-1, e.snap.Vecs[idxs[0]], target)
	vecmath.AxpyInPlace(1, e.snap.Vecs[idxs[2]], target)

	// A fully cancelled target scores everything at zero; ordering then
	// falls back to id ascending.
	targetMag := 0.0
	if vecmath.NormalizeInPlace(target) > 0 {
		targetMag = 1
	}

	exclude := map[int]bool{idxs[0]: true, idxs[1]: true, idxs[2]: true}
	return e.nearest(target, targetMag, k, exclude, nil), nil
}

// WithinRadius returns every entity whose cosine distance from id is at
// most radius, ordered like NearestNeighbors. A negative radius matches
// nothing; radius >= 2 matches everything except the entity itself.
func (e *Engine) WithinRadius(id string, radius float64) ([]Match, error) {
	idx, ok := e.snap.Index(id)
	if !ok {
		return nil, &graph.UnknownEntityError{ID: id}
	}
	if radius < 0 {
		return nil, nil
	}

	matches := e.collect(e.snap.Vecs[idx], e.mags[idx], map[int]bool{idx: true}, nil, func(sim float64) bool {
		return 1-sim <= radius
	})
	return matches, nil
}

// nearest returns the top-k matches against target, boosted when boost
// is non-nil.
func (e *Engine) nearest(target []float32, targetMag float64, k int, exclude map[int]bool, boost []float64) []Match {
	matches := e.collect(target, targetMag, exclude, boost, nil)
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

// collect scores every non-excluded row, keeps those passing the raw
// similarity filter, applies boosts, and sorts by score descending with
// id ascending on ties.
func (e *Engine) collect(target []float32, targetMag float64, exclude map[int]bool, boost []float64, keep func(sim float64) bool) []Match {
	matches := make([]Match, 0, e.snap.Len())
	for i := range e.snap.Len() {
		if exclude[i] {
			continue
		}
		sim := vecmath.CosineSimilarity(target, e.snap.Vecs[i], targetMag, e.mags[i])
		if keep != nil && !keep(sim) {
			continue
		}
		score := sim
		if boost != nil {
			score *= boost[i]
		}
		matches = append(matches, Match{
			ID:    e.snap.IDs[i],
			Score: score,
			Kind:  e.snap.Kind(i),
		})
	}
	sortMatches(matches)
	return matches
}

// sortMatches orders by score descending with id ascending on ties.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}
