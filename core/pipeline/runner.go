// Package pipeline orchestrates one unified-space build: structural
// training and semantic encoding run in parallel, fusion joins them, and
// the result is an immutable snapshot. A watcher variant rebuilds the
// snapshot when ingestion files change.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/graph"
)

// ErrNoEntities indicates a build against an empty graph.
var ErrNoEntities = errors.New("graph has no entities")

// Config holds every parameter of one build. The same config and graph
// always produce the same vectors; only the snapshot version differs.
type Config struct {
	// Alpha weights the structural side of fusion.
	Alpha float64 `yaml:"alpha"`

	// Train configures structural training.
	Train embed.TrainConfig `yaml:"train"`

	// Encode configures semantic encoding batches.
	Encode embed.EncodeConfig `yaml:"-"`

	// EncoderName labels the semantic encoder in the audit params.
	EncoderName string `yaml:"encoder"`

	// ResizeMethod brings semantic vectors to the structural width.
	ResizeMethod embed.ResizeMethod `yaml:"resize_method"`

	// ResizeSeed seeds the projection matrix of the project method.
	ResizeSeed int64 `yaml:"resize_seed"`
}

// DefaultConfig returns the published build parameters.
func DefaultConfig() Config {
	return Config{
		Alpha:        0.6,
		Train:        embed.DefaultTrainConfig(),
		Encode:       embed.DefaultEncodeConfig(),
		EncoderName:  "local",
		ResizeMethod: embed.ResizeTruncate,
		ResizeSeed:   42,
	}
}

// Runner executes builds against one graph and encoder.
type Runner struct {
	graph   *graph.Store
	encoder embed.Encoder
	cfg     Config
	logger  *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default().
func NewRunner(st *graph.Store, enc embed.Encoder, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{graph: st, encoder: enc, cfg: cfg, logger: logger}
}

// Run executes the full build: structural training and semantic encoding
// in parallel, then fusion. Cancellation aborts both stages and publishes
// nothing; no partial snapshot ever escapes.
func (r *Runner) Run(ctx context.Context) (*fusion.Snapshot, error) {
	if r.graph.Len() == 0 {
		return nil, ErrNoEntities
	}
	start := time.Now()

	var structural, semantic *embed.Space

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		trainer := embed.NewStructuralTrainer(r.cfg.Train, r.logger)
		space, err := trainer.Train(gctx, r.graph)
		if err != nil {
			return fmt.Errorf("structural training: %w", err)
		}
		structural = space
		return nil
	})
	eg.Go(func() error {
		space, err := embed.EncodeGraph(gctx, r.encoder, r.graph, r.cfg.Encode)
		if err != nil {
			return fmt.Errorf("semantic encoding: %w", err)
		}
		semantic = space
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	kinds := make(map[string]graph.EntityKind, r.graph.Len())
	for _, e := range r.graph.Entities() {
		kinds[e.ID] = e.Kind
	}

	snap, err := fusion.Build(structural, semantic, fusion.Config{
		Alpha:        r.cfg.Alpha,
		ResizeMethod: r.cfg.ResizeMethod,
		ResizeSeed:   r.cfg.ResizeSeed,
		Kinds:        kinds,
		Params: fusion.Params{
			Train:      r.cfg.Train,
			Encoder:    r.cfg.EncoderName,
			EncoderDim: r.encoder.Dimension(),
		},
		Logger: r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("fusion: %w", err)
	}

	r.logger.Info("pipeline complete",
		slog.String("version", snap.Version),
		slog.Int("entities", snap.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return snap, nil
}

// Refuse re-blends an existing snapshot at a new alpha without invoking
// either embedder. It is linear in entity count.
func (r *Runner) Refuse(snap *fusion.Snapshot, alpha float64) (*fusion.Snapshot, error) {
	return fusion.Refuse(snap, alpha)
}
