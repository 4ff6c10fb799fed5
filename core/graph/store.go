package graph

import (
	"sort"
	"sync"
)

// DefaultStrength is assigned to triples ingested without an explicit
// strength value.
const DefaultStrength = 1.0

type tripleKey struct {
	subject  string
	relation string
	object   string
}

// StoreOption configures a Store at construction time.
type StoreOption func(*Store)

// WithPlaceholders makes AddTriple auto-create placeholder entities for
// unknown endpoints instead of rejecting the triple. The default is strict:
// both endpoints must already exist.
func WithPlaceholders() StoreOption {
	return func(s *Store) {
		s.placeholders = true
	}
}

// Store holds the typed relationship graph. It is safe for concurrent use;
// ingestion writes and query reads share a RWMutex. All listing methods
// return results in a deterministic order.
type Store struct {
	mu sync.RWMutex

	entities map[string]Entity
	strength map[tripleKey]float64
	outgoing map[string][]tripleKey
	incoming map[string][]tripleKey

	placeholders bool
}

// NewStore creates an empty graph store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entities: make(map[string]Entity),
		strength: make(map[tripleKey]float64),
		outgoing: make(map[string][]tripleKey),
		incoming: make(map[string][]tripleKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEntity inserts or updates an entity. The id must be non-empty and the
// kind must be valid; an empty kind defaults to KindConcept. Re-adding an
// id with the same kind replaces its attributes; a placeholder created by
// AddTriple may be upgraded to any real kind. Re-adding with a different
// kind fails with DuplicateEntityError, since identity is immutable once
// established.
func (s *Store) AddEntity(e Entity) error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Kind == "" {
		e.Kind = KindConcept
	}
	if !e.Kind.IsValid() {
		return &InvalidKindError{Kind: e.Kind}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entities[e.ID]; ok {
		if prev.Kind != e.Kind && prev.Kind != KindPlaceholder {
			return &DuplicateEntityError{ID: e.ID}
		}
	}
	s.entities[e.ID] = e
	return nil
}

// AddTriple inserts a directed edge. Both endpoints must resolve unless the
// store was built with WithPlaceholders. A zero strength is normalized to
// DefaultStrength; out-of-range strengths are rejected. Re-adding an
// existing (subject, relation, object) keeps the maximum strength seen.
func (s *Store) AddTriple(t Triple) error {
	if t.Subject == "" || t.Object == "" {
		return ErrEmptyID
	}
	if t.Strength == 0 {
		t.Strength = DefaultStrength
	}
	if t.Strength < 0 || t.Strength > 1 {
		return &InvalidStrengthError{Strength: t.Strength}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{t.Subject, t.Object} {
		if _, ok := s.entities[id]; ok {
			continue
		}
		if !s.placeholders {
			return &DanglingReferenceError{Subject: t.Subject, Object: t.Object, Missing: id}
		}
		s.entities[id] = Entity{ID: id, Kind: KindPlaceholder}
	}

	key := tripleKey{subject: t.Subject, relation: t.Relation, object: t.Object}
	if prev, ok := s.strength[key]; ok {
		if t.Strength > prev {
			s.strength[key] = t.Strength
		}
		return nil
	}
	s.strength[key] = t.Strength
	s.outgoing[t.Subject] = append(s.outgoing[t.Subject], key)
	s.incoming[t.Object] = append(s.incoming[t.Object], key)
	return nil
}

// Entity returns the entity with the given id.
func (s *Store) Entity(id string) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return Entity{}, &UnknownEntityError{ID: id}
	}
	return e, nil
}

// Contains reports whether an entity with the given id exists.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entities[id]
	return ok
}

// IDs returns all entity ids in ascending order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entities returns all entities ordered by id.
func (s *Store) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Triples returns all edges ordered by (subject, relation, object) with
// merged strengths.
func (s *Store) Triples() []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Triple, 0, len(s.strength))
	for key, strength := range s.strength {
		out = append(out, Triple{
			Subject:  key.subject,
			Relation: key.relation,
			Object:   key.object,
			Strength: strength,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Relation != b.Relation {
			return a.Relation < b.Relation
		}
		return a.Object < b.Object
	})
	return out
}

// Neighbors returns every entity connected to id in either direction,
// ordered by (id, relation). Walk generation treats edges as traversable
// both ways; the Outgoing flag preserves the stored direction.
func (s *Store) Neighbors(id string) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[id]; !ok {
		return nil, &UnknownEntityError{ID: id}
	}

	out := make([]Neighbor, 0, len(s.outgoing[id])+len(s.incoming[id]))
	for _, key := range s.outgoing[id] {
		out = append(out, Neighbor{
			ID:       key.object,
			Relation: key.relation,
			Strength: s.strength[key],
			Outgoing: true,
		})
	}
	for _, key := range s.incoming[id] {
		// Self-loops already appear through the outgoing list.
		if key.subject == id && key.object == id {
			continue
		}
		out = append(out, Neighbor{
			ID:       key.subject,
			Relation: key.relation,
			Strength: s.strength[key],
			Outgoing: false,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Relation < out[j].Relation
	})
	return out, nil
}

// Degree returns the number of distinct edges touching id.
func (s *Store) Degree(id string) (int, error) {
	neighbors, err := s.Neighbors(id)
	if err != nil {
		return 0, err
	}
	return len(neighbors), nil
}

// Len returns the number of entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entities)
}

// TripleCount returns the number of distinct (subject, relation, object)
// edges after merging.
func (s *Store) TripleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.strength)
}
