// Package graph implements the in-memory typed relationship graph that
// feeds the embedding pipeline. Entities carry a kind plus optional display
// and description text; triples connect entities with a named relation and
// a strength in [0, 1].
package graph

// =============================================================================
// Entity Kinds
// =============================================================================

// EntityKind categorizes an entity within the relationship graph.
type EntityKind string

const (
	// KindRay represents one of the seven rays.
	KindRay EntityKind = "ray"

	// KindPlane represents a plane of manifestation.
	KindPlane EntityKind = "plane"

	// KindQuality represents a quality an entity embodies.
	KindQuality EntityKind = "quality"

	// KindColor represents a color association.
	KindColor EntityKind = "color"

	// KindFunction represents a function or activity.
	KindFunction EntityKind = "function"

	// KindKingdom represents a kingdom of nature.
	KindKingdom EntityKind = "kingdom"

	// KindConsciousness represents a consciousness type.
	KindConsciousness EntityKind = "consciousness"

	// KindName represents an alternate name for another entity.
	KindName EntityKind = "name"

	// KindTeaching represents a teaching or doctrine reference.
	KindTeaching EntityKind = "teaching"

	// KindConcept represents a generic concept outside the fixed taxonomy.
	KindConcept EntityKind = "concept"

	// KindPlaceholder marks an entity auto-created for a triple endpoint
	// when the store was built with WithPlaceholders.
	KindPlaceholder EntityKind = "placeholder"
)

// ValidKinds returns all valid EntityKind values.
func ValidKinds() []EntityKind {
	return []EntityKind{
		KindRay,
		KindPlane,
		KindQuality,
		KindColor,
		KindFunction,
		KindKingdom,
		KindConsciousness,
		KindName,
		KindTeaching,
		KindConcept,
		KindPlaceholder,
	}
}

// IsValid returns true if the kind is a recognized value.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindRay, KindPlane, KindQuality, KindColor, KindFunction,
		KindKingdom, KindConsciousness, KindName, KindTeaching,
		KindConcept, KindPlaceholder:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k EntityKind) String() string {
	return string(k)
}

// =============================================================================
// Relations
// =============================================================================

// Common relation names used by the ingestion corpus. Relations are
// free-form strings; these constants only cover the published vocabulary.
const (
	RelationEmbodies         = "embodies"
	RelationPrimarilyGoverns = "primarily_governs"
	RelationFlowsThrough     = "flows_through"
	RelationResonatesWith    = "resonates_with"
	RelationExpressesAs      = "expresses_as"
	RelationAlsoCalled       = "also_called"
	RelationTaughtIn         = "taught_in"
	RelationBridges          = "bridges"
	RelationGoverns          = "governs"
)

// =============================================================================
// Interaction Bands
// =============================================================================

// InteractionBand classifies a triple strength into a named band.
type InteractionBand string

const (
	// BandPrimaryChannel marks strengths above 0.8.
	BandPrimaryChannel InteractionBand = "primary_channel"

	// BandStrongInfluence marks strengths above 0.6.
	BandStrongInfluence InteractionBand = "strong_influence"

	// BandModerateInteraction marks strengths above 0.4.
	BandModerateInteraction InteractionBand = "moderate_interaction"

	// BandSubtleResonance marks strengths above 0.2.
	BandSubtleResonance InteractionBand = "subtle_resonance"

	// BandMinimalConnection marks everything else.
	BandMinimalConnection InteractionBand = "minimal_connection"
)

// BandForStrength maps a strength value to its interaction band.
func BandForStrength(strength float64) InteractionBand {
	switch {
	case strength > 0.8:
		return BandPrimaryChannel
	case strength > 0.6:
		return BandStrongInfluence
	case strength > 0.4:
		return BandModerateInteraction
	case strength > 0.2:
		return BandSubtleResonance
	default:
		return BandMinimalConnection
	}
}

// =============================================================================
// Core Types
// =============================================================================

// Entity is a node in the relationship graph.
type Entity struct {
	// ID uniquely identifies the entity.
	ID string `json:"id" yaml:"id"`

	// Kind categorizes the entity.
	Kind EntityKind `json:"kind" yaml:"kind"`

	// Name is an optional human-readable display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Color is an optional display color as a #rrggbb hex string.
	Color string `json:"color,omitempty" yaml:"color,omitempty"`

	// Description is the text consumed by the semantic embedder.
	// Entities with an empty description get no semantic vector.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasText reports whether the entity carries semantic text.
func (e Entity) HasText() bool {
	return e.Description != ""
}

// Triple is a directed, strength-weighted edge between two entities.
type Triple struct {
	// Subject is the id of the source entity.
	Subject string `json:"subject" yaml:"subject"`

	// Relation names the relationship.
	Relation string `json:"relation" yaml:"relation"`

	// Object is the id of the target entity.
	Object string `json:"object" yaml:"object"`

	// Strength weights the edge in [0, 1]. Zero-valued inputs are
	// normalized to the default strength at insertion.
	Strength float64 `json:"strength" yaml:"strength"`
}

// Band returns the interaction band of the triple's strength.
func (t Triple) Band() InteractionBand {
	return BandForStrength(t.Strength)
}

// Neighbor is one adjacency entry returned by Store.Neighbors.
type Neighbor struct {
	// ID is the neighboring entity id.
	ID string `json:"id"`

	// Relation names the connecting relationship.
	Relation string `json:"relation"`

	// Strength is the merged edge strength.
	Strength float64 `json:"strength"`

	// Outgoing is true when the edge runs from the queried entity to ID.
	Outgoing bool `json:"outgoing"`
}
