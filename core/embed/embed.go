// Package embed produces the two vector spaces behind the unified
// embedding: a structural space trained from strength-weighted random walks
// over the relationship graph, and a semantic space encoded from entity
// descriptions. Both are deterministic for a fixed input, configuration,
// and seed.
package embed

import "sort"

// Space is an immutable id-indexed collection of equally sized vectors.
// IDs are held in ascending order; vectors align with that order.
type Space struct {
	dim   int
	ids   []string
	index map[string]int
	vecs  [][]float32
}

// NewSpace builds a space from parallel id and vector slices. Pairs are
// re-sorted by id so callers need not pre-sort. Vectors are referenced,
// not copied; callers hand over ownership.
func NewSpace(dim int, ids []string, vecs [][]float32) *Space {
	type pair struct {
		id  string
		vec []float32
	}
	pairs := make([]pair, len(ids))
	for i := range ids {
		pairs[i] = pair{id: ids[i], vec: vecs[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	s := &Space{
		dim:   dim,
		ids:   make([]string, len(pairs)),
		index: make(map[string]int, len(pairs)),
		vecs:  make([][]float32, len(pairs)),
	}
	for i, p := range pairs {
		s.ids[i] = p.id
		s.index[p.id] = i
		s.vecs[i] = p.vec
	}
	return s
}

// Dim returns the vector dimensionality.
func (s *Space) Dim() int {
	return s.dim
}

// Len returns the number of vectors.
func (s *Space) Len() int {
	return len(s.ids)
}

// IDs returns the ids in ascending order. The slice is shared; callers
// must not modify it.
func (s *Space) IDs() []string {
	return s.ids
}

// Has reports whether the space holds a vector for id.
func (s *Space) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Vector returns the vector for id.
func (s *Space) Vector(id string) ([]float32, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.vecs[i], true
}

// At returns the vector at position i in id order.
func (s *Space) At(i int) []float32 {
	return s.vecs[i]
}
