package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEncoder forwards to an inner encoder while counting how much
// work actually reaches it.
type countingEncoder struct {
	inner      Encoder
	embeds     atomic.Int64
	batchTexts atomic.Int64
}

func (c *countingEncoder) Dimension() int {
	return c.inner.Dimension()
}

func (c *countingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embeds.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchTexts.Add(int64(len(texts)))
	return c.inner.EmbedBatch(ctx, texts)
}

func newCountingCache(t *testing.T) (*CachingEncoder, *countingEncoder) {
	t.Helper()
	counting := &countingEncoder{inner: NewLocalEncoder(32)}
	cached, err := NewCachingEncoder(counting, nil)
	require.NoError(t, err, "NewCachingEncoder")
	t.Cleanup(cached.Close)
	return cached, counting
}

func TestCachingEncoder_HitSkipsInner(t *testing.T) {
	cached, counting := newCountingCache(t)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "the first ray of will")
	require.NoError(t, err)
	cached.Wait()

	second, err := cached.Embed(ctx, "the first ray of will")
	require.NoError(t, err)

	assert.Equal(t, first, second, "cached vector should match the original")
	assert.Equal(t, int64(1), counting.embeds.Load(), "second embed should not reach the inner encoder")

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCachingEncoder_BatchReEncodesOnlyMisses(t *testing.T) {
	cached, counting := newCountingCache(t)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "love and wisdom")
	require.NoError(t, err)
	cached.Wait()

	texts := []string{"active intelligence", "love and wisdom", "harmony through conflict"}
	vecs, err := cached.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// One text was already cached, so only two reach the inner encoder.
	assert.Equal(t, int64(2), counting.batchTexts.Load())

	plain := NewLocalEncoder(32)
	for i, text := range texts {
		want, err := plain.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, want, vecs[i], "vector for %q should match an uncached encode", text)
	}
}

func TestCachingEncoder_Dimension(t *testing.T) {
	cached, _ := newCountingCache(t)
	assert.Equal(t, 32, cached.Dimension())
}

func TestCachingEncoder_CloseDisablesCaching(t *testing.T) {
	counting := &countingEncoder{inner: NewLocalEncoder(32)}
	cached, err := NewCachingEncoder(counting, nil)
	require.NoError(t, err)

	cached.Close()
	cached.Close() // second close is a no-op

	vec, err := cached.Embed(context.Background(), "ceremonial order")
	require.NoError(t, err, "a closed cache should pass through to the inner encoder")
	assert.Len(t, vec, 32)
	assert.Equal(t, int64(1), counting.embeds.Load())
}

func TestCachingEncoder_ConfigOverrides(t *testing.T) {
	cached, err := NewCachingEncoder(NewLocalEncoder(16), &CacheConfig{
		NumCounters: 1000,
		MaxCost:     1 << 16,
	})
	require.NoError(t, err)
	defer cached.Close()

	vec, err := cached.Embed(context.Background(), "devotion")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
}
