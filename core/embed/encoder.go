package embed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/prismatic-systems/raywalk/core/graph"
)

// Encoder turns text into a fixed-length vector. Implementations must be
// deterministic for this engine's purposes: the same text yields the same
// vector for the lifetime of a build.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// EncodeConfig controls EncodeGraph batching.
type EncodeConfig struct {
	// BatchSize is the number of descriptions per EmbedBatch call.
	BatchSize int

	// Parallelism bounds the number of in-flight batches.
	Parallelism int

	// Logger receives progress events. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// DefaultEncodeConfig returns the standard batching parameters.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		BatchSize:   32,
		Parallelism: 4,
	}
}

// EncodeGraph encodes the descriptions of every entity that carries text
// and returns the resulting semantic space. Entities without text are
// skipped entirely; they get no semantic vector. The returned space may be
// empty. Batches run concurrently but results land in id order.
func EncodeGraph(ctx context.Context, enc Encoder, st *graph.Store, cfg EncodeConfig) (*Space, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEncodeConfig().BatchSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultEncodeConfig().Parallelism
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var ids []string
	var texts []string
	for _, e := range st.Entities() {
		if !e.HasText() {
			continue
		}
		ids = append(ids, e.ID)
		texts = append(texts, e.Description)
	}
	if len(ids) == 0 {
		return NewSpace(enc.Dimension(), nil, nil), nil
	}

	vecs := make([][]float32, len(ids))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism)
	for start := 0; start < len(texts); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(texts))
		eg.Go(func() error {
			batch, err := enc.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("encode batch [%d:%d]: %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("encode batch [%d:%d]: got %d vectors", start, end, len(batch))
			}
			copy(vecs[start:end], batch)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("semantic encoding complete",
		slog.Int("entities", len(ids)),
		slog.Int("dimension", enc.Dimension()))

	return NewSpace(enc.Dimension(), ids, vecs), nil
}
