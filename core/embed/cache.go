package embed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	cacheDefaultNumCounters = 1e5
	cacheDefaultMaxCost     = 32 << 20 // 32MB of vectors
	cacheDefaultBufferItems = 64
	cacheDefaultTTL         = time.Hour
)

// CacheConfig tunes the encoder memo cache.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

// CachingEncoder memoizes an inner encoder. Repeated descriptions (alternate
// names share text with their referent, and rebuilds re-encode the whole
// graph) skip the inner encoder entirely. Safe for concurrent use.
type CachingEncoder struct {
	inner Encoder
	cache *ristretto.Cache
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// NewCachingEncoder wraps inner with a ristretto memo cache.
func NewCachingEncoder(inner Encoder, cfg *CacheConfig) (*CachingEncoder, error) {
	resolved := CacheConfig{
		NumCounters: cacheDefaultNumCounters,
		MaxCost:     cacheDefaultMaxCost,
		BufferItems: cacheDefaultBufferItems,
		TTL:         cacheDefaultTTL,
	}
	if cfg != nil {
		if cfg.NumCounters > 0 {
			resolved.NumCounters = cfg.NumCounters
		}
		if cfg.MaxCost > 0 {
			resolved.MaxCost = cfg.MaxCost
		}
		if cfg.BufferItems > 0 {
			resolved.BufferItems = cfg.BufferItems
		}
		if cfg.TTL > 0 {
			resolved.TTL = cfg.TTL
		}
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: resolved.NumCounters,
		MaxCost:     resolved.MaxCost,
		BufferItems: resolved.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &CachingEncoder{
		inner: inner,
		cache: cache,
		ttl:   resolved.TTL,
	}, nil
}

func (c *CachingEncoder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(text, vec)
	return vec, nil
}

func (c *CachingEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.lookup(text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for i, vec := range vecs {
		out[missIdx[i]] = vec
		c.store(missTexts[i], vec)
	}
	return out, nil
}

// Stats returns hit/miss counts since construction.
func (c *CachingEncoder) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Wait blocks until buffered cache writes are applied. Reads issued
// before Wait returns may still miss entries stored moments earlier.
func (c *CachingEncoder) Wait() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}
	c.cache.Wait()
}

// Close releases the cache. The inner encoder stays usable.
func (c *CachingEncoder) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cache.Close()
}

func (c *CachingEncoder) lookup(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, false
	}
	value, ok := c.cache.Get(text)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	vec, ok := value.([]float32)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return vec, true
}

func (c *CachingEncoder) store(text string, vec []float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}
	cost := int64(4 * len(vec))
	c.cache.SetWithTTL(text, vec, cost, c.ttl)
}
