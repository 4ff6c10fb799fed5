package graph

import "testing"

func TestEntityKindIsValid(t *testing.T) {
	tests := []struct {
		name     string
		kind     EntityKind
		expected bool
	}{
		{
			name:     "ray is valid",
			kind:     KindRay,
			expected: true,
		},
		{
			name:     "placeholder is valid",
			kind:     KindPlaceholder,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			kind:     EntityKind(""),
			expected: false,
		},
		{
			name:     "unknown kind is invalid",
			kind:     EntityKind("galaxy"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidKindsAllValid(t *testing.T) {
	for _, k := range ValidKinds() {
		if !k.IsValid() {
			t.Errorf("ValidKinds() returned invalid kind %q", k)
		}
	}
}

func TestBandForStrength(t *testing.T) {
	tests := []struct {
		name     string
		strength float64
		expected InteractionBand
	}{
		{
			name:     "above 0.8 is primary channel",
			strength: 0.95,
			expected: BandPrimaryChannel,
		},
		{
			name:     "exactly 0.8 falls to strong influence",
			strength: 0.8,
			expected: BandStrongInfluence,
		},
		{
			name:     "0.5 is moderate interaction",
			strength: 0.5,
			expected: BandModerateInteraction,
		},
		{
			name:     "0.3 is subtle resonance",
			strength: 0.3,
			expected: BandSubtleResonance,
		},
		{
			name:     "0.1 is minimal connection",
			strength: 0.1,
			expected: BandMinimalConnection,
		},
		{
			name:     "zero is minimal connection",
			strength: 0,
			expected: BandMinimalConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BandForStrength(tt.strength); got != tt.expected {
				t.Errorf("BandForStrength(%v) = %v, want %v", tt.strength, got, tt.expected)
			}
		})
	}
}

func TestBlendColors(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		t        float64
		expected string
	}{
		{
			name:     "t zero returns first color",
			a:        "#ff0000",
			b:        "#0000ff",
			t:        0,
			expected: "#ff0000",
		},
		{
			name:     "t one returns second color",
			a:        "#ff0000",
			b:        "#0000ff",
			t:        1,
			expected: "#0000ff",
		},
		{
			name:     "midpoint blends channels",
			a:        "#000000",
			b:        "#ffffff",
			t:        0.5,
			expected: "#808080",
		},
		{
			name:     "t above one clamps",
			a:        "#ff0000",
			b:        "#0000ff",
			t:        2,
			expected: "#0000ff",
		},
		{
			name:     "bare hex accepted",
			a:        "ff0000",
			b:        "0000ff",
			t:        0,
			expected: "#ff0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BlendColors(tt.a, tt.b, tt.t)
			if err != nil {
				t.Fatalf("BlendColors() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("BlendColors() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBlendColorsInvalid(t *testing.T) {
	if _, err := BlendColors("#zzz", "#0000ff", 0.5); err == nil {
		t.Error("BlendColors() expected error for malformed color")
	}
	if _, err := BlendColors("#ff0000", "blue", 0.5); err == nil {
		t.Error("BlendColors() expected error for named color")
	}
}
