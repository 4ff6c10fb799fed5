package store

import (
	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/projection"
)

// Marker presentation defaults for the visualization feed. Emphasized
// entities render larger and fully opaque.
const (
	FeedBaseSize       = 8.0
	FeedEmphasizedSize = 12.0
	FeedBaseOpacity    = 0.7
	FeedFullOpacity    = 1.0
)

// FeedEntity is one renderable node.
type FeedEntity struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Color   string    `json:"color,omitempty"`
	Coords  []float32 `json:"coords"`
	Size    float64   `json:"size"`
	Opacity float64   `json:"opacity"`
}

// FeedEdge is one renderable relation.
type FeedEdge struct {
	Subject  string  `json:"subject"`
	Object   string  `json:"object"`
	Relation string  `json:"relation"`
	Strength float64 `json:"strength"`
	Band     string  `json:"band"`
	Color    string  `json:"color,omitempty"`
}

// Feed is the complete visualization payload for one layout.
type Feed struct {
	Version    string       `json:"version"`
	Method     string       `json:"method"`
	Components int          `json:"components"`
	Entities   []FeedEntity `json:"entities"`
	Edges      []FeedEdge   `json:"edges"`
}

// BuildFeed joins a layout with graph display attributes into the payload
// the visualization front-end consumes. Emphasis weights above 1 mark
// entities for highlighted rendering; kind and id globs filter both nodes
// and the edges between them. Edge colors blend the endpoint colors by
// strength, so stronger links pull toward the object's color.
func BuildFeed(st *graph.Store, layout *projection.Layout, version string, emphasis map[string]float64, kindGlob, idGlob string) (*Feed, error) {
	view, err := st.View(kindGlob, idGlob)
	if err != nil {
		return nil, err
	}

	feed := &Feed{
		Version:    version,
		Method:     string(layout.Method),
		Components: layout.Components,
	}

	coords := make(map[string][]float32, len(layout.IDs))
	for i, id := range layout.IDs {
		coords[id] = layout.Coords[i]
	}

	kept := make(map[string]graph.Entity, len(view.Entities))
	for _, e := range view.Entities {
		c, ok := coords[e.ID]
		if !ok {
			// Entity filtered into the view but absent from the layout;
			// nothing to place.
			continue
		}
		kept[e.ID] = e

		size, opacity := FeedBaseSize, FeedBaseOpacity
		if emphasis[e.ID] > 1 {
			size, opacity = FeedEmphasizedSize, FeedFullOpacity
		}
		feed.Entities = append(feed.Entities, FeedEntity{
			ID:      e.ID,
			Kind:    string(e.Kind),
			Name:    e.Name,
			Color:   e.Color,
			Coords:  c,
			Size:    size,
			Opacity: opacity,
		})
	}

	for _, t := range view.Triples {
		subj, okS := kept[t.Subject]
		obj, okO := kept[t.Object]
		if !okS || !okO {
			continue
		}
		edge := FeedEdge{
			Subject:  t.Subject,
			Object:   t.Object,
			Relation: t.Relation,
			Strength: t.Strength,
			Band:     string(t.Band()),
		}
		if subj.Color != "" && obj.Color != "" {
			if blended, err := graph.BlendColors(subj.Color, obj.Color, t.Strength); err == nil {
				edge.Color = blended
			}
		}
		feed.Edges = append(feed.Edges, edge)
	}
	return feed, nil
}
