package query

import (
	"context"
	"fmt"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/vecmath"
)

// NearestToText encodes free text with the given encoder, resizes it to
// the unified width using the snapshot's recorded resize parameters, and
// ranks entities by cosine similarity against it. The text lives in the
// semantic space while entities live in the fused one, so scores are
// approximate by construction; they still rank consistently.
func (e *Engine) NearestToText(ctx context.Context, enc embed.Encoder, text string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	vec, err := enc.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode query text: %w", err)
	}

	method, err := embed.ParseResizeMethod(e.snap.Params.ResizeMethod)
	if err != nil {
		return nil, err
	}
	resizer, err := embed.NewResizer(method, len(vec), e.snap.Dim, e.snap.Params.ResizeSeed)
	if err != nil {
		return nil, fmt.Errorf("resize query text: %w", err)
	}

	target := resizer.Apply(vec)
	targetMag := vecmath.Magnitude(target)
	return e.nearest(target, targetMag, k, nil, nil), nil
}
