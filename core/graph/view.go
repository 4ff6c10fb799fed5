package graph

import (
	"fmt"

	"github.com/gobwas/glob"
)

// View is a filtered read of the graph produced by Store.View.
type View struct {
	Entities []Entity
	Triples  []Triple
}

// View returns the entities whose kind and id match the given glob
// patterns, plus the triples whose endpoints both survive the filter. An
// empty pattern matches everything. Triples to filtered-out entities are
// dropped so the view stays self-contained.
func (s *Store) View(kindPattern, idPattern string) (*View, error) {
	matchKind, err := compileFilter(kindPattern)
	if err != nil {
		return nil, fmt.Errorf("kind filter: %w", err)
	}
	matchID, err := compileFilter(idPattern)
	if err != nil {
		return nil, fmt.Errorf("id filter: %w", err)
	}

	view := &View{}
	kept := make(map[string]bool)
	for _, e := range s.Entities() {
		if !matchKind(string(e.Kind)) || !matchID(e.ID) {
			continue
		}
		view.Entities = append(view.Entities, e)
		kept[e.ID] = true
	}
	for _, t := range s.Triples() {
		if kept[t.Subject] && kept[t.Object] {
			view.Triples = append(view.Triples, t)
		}
	}
	return view, nil
}

func compileFilter(pattern string) (func(string) bool, error) {
	if pattern == "" {
		return func(string) bool { return true }, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return g.Match, nil
}
