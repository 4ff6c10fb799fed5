package graph

import (
	"fmt"
	"strings"
)

// ParseHexColor parses a #rrggbb string into its 8-bit channels. The
// leading # is optional.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	var rv, gv, bv uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	return rv, gv, bv, nil
}

// BlendColors linearly interpolates two #rrggbb colors. t=0 returns a,
// t=1 returns b; values outside [0, 1] are clamped. Visualization feeds
// use the edge strength as t so stronger links pull toward the object's
// color.
func BlendColors(a, b string, t float64) (string, error) {
	ar, ag, ab, err := ParseHexColor(a)
	if err != nil {
		return "", err
	}
	br, bg, bb, err := ParseHexColor(b)
	if err != nil {
		return "", err
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", lerp(ar, br), lerp(ag, bg), lerp(ab, bb)), nil
}
