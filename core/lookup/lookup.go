// Package lookup resolves free text to entity ids. The CLI uses it so
// queries can name entities by display name or description fragment
// instead of exact ids.
package lookup

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/prismatic-systems/raywalk/core/graph"
)

// DefaultLimit is the number of candidates returned when the caller does
// not specify one.
const DefaultLimit = 5

// Index is the subset of bleve used by the resolver, split out so tests
// can substitute a failing or counting implementation.
type Index interface {
	Index(id string, data interface{}) error
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	Close() error
}

// Candidate is one resolution result.
type Candidate struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// entityDocument is the shape indexed per entity.
type entityDocument struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Resolver maps query strings to entity ids via a full-text index over
// id, kind, name, and description. Exact ids short-circuit the index.
type Resolver struct {
	store StoreReader
	bleve Index
}

// StoreReader is satisfied by *graph.Store; declared here so the
// resolver only depends on the lookups it performs.
type StoreReader interface {
	Contains(id string) bool
	Entities() []graph.Entity
}

// NewResolver builds an in-memory index over every entity in the store.
func NewResolver(st StoreReader) (*Resolver, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create lookup index: %w", err)
	}
	r := &Resolver{store: st, bleve: idx}
	for _, e := range st.Entities() {
		doc := entityDocument{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Name:        e.Name,
			Description: e.Description,
		}
		if err := idx.Index(e.ID, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index entity %s: %w", e.ID, err)
		}
	}
	return r, nil
}

// Resolve returns candidate entity ids for q, best first. A q that is
// itself an entity id resolves to exactly that entity.
func (r *Resolver) Resolve(q string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if r.store.Contains(q) {
		return []Candidate{{ID: q, Score: 1}}, nil
	}

	match := bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequest(match)
	req.Size = limit

	result, err := r.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lookup search: %w", err)
	}

	out := make([]Candidate, 0, len(result.Hits))
	for _, hit := range result.Hits {
		out = append(out, Candidate{ID: hit.ID, Score: hit.Score})
	}
	return out, nil
}

// Close releases the underlying index.
func (r *Resolver) Close() error {
	return r.bleve.Close()
}
