package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismatic-systems/raywalk/core/embed"
)

func TestNearestToText(t *testing.T) {
	e := newTestEngine(t)
	enc := embed.NewLocalEncoder(8)
	ctx := context.Background()

	t.Run("ranks every entity", func(t *testing.T) {
		matches, err := e.NearestToText(ctx, enc, "the fourth ray bridges", 3)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := e.NearestToText(ctx, enc, "harmony through conflict", 5)
		require.NoError(t, err)
		second, err := e.NearestToText(ctx, enc, "harmony through conflict", 5)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("non-positive k returns nothing", func(t *testing.T) {
		matches, err := e.NearestToText(ctx, enc, "anything", 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
