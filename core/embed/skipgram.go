package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/prismatic-systems/raywalk/core/graph"
)

const (
	// negTableSize is the size of the unigram^0.75 sampling table.
	negTableSize = 1 << 17

	// maxExp clips logits before the sigmoid; matches the classic
	// skip-gram training regime.
	maxExp = 6.0

	// minLearningRateFactor floors the linear learning-rate decay.
	minLearningRateFactor = 1e-4
)

// TrainConfig holds every parameter of structural training. Two runs with
// equal graphs and equal configs produce bit-identical spaces.
type TrainConfig struct {
	// Dimensions is the width of the structural vectors.
	Dimensions int `yaml:"dimensions"`

	// WalkLength caps the number of entities visited per walk.
	WalkLength int `yaml:"walk_length"`

	// WalksPerEntity is the number of walks started from each entity.
	WalksPerEntity int `yaml:"walks_per_entity"`

	// WindowSize is the maximum skip-gram context distance.
	WindowSize int `yaml:"window_size"`

	// Epochs is the number of passes over the walk corpus.
	Epochs int `yaml:"epochs"`

	// NegativeSamples is the number of noise draws per context pair.
	NegativeSamples int `yaml:"negative_samples"`

	// LearningRate is the initial SGD step size, decayed linearly.
	LearningRate float64 `yaml:"learning_rate"`

	// Seed drives walk generation, weight init, and negative sampling.
	Seed int64 `yaml:"seed"`

	// WalkParallelism bounds concurrent walk generation. Zero means
	// unbounded.
	WalkParallelism int `yaml:"walk_parallelism,omitempty"`
}

// DefaultTrainConfig returns the published training parameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Dimensions:      128,
		WalkLength:      30,
		WalksPerEntity:  12,
		WindowSize:      5,
		Epochs:          5,
		NegativeSamples: 5,
		LearningRate:    0.025,
		Seed:            42,
	}
}

// Validate rejects configurations that cannot train.
func (c TrainConfig) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("dimensions %d: %w", c.Dimensions, ErrInvalidDimension)
	}
	if c.WalkLength < 1 || c.WalksPerEntity < 1 {
		return fmt.Errorf("walk shape %dx%d: walks and length must be positive", c.WalksPerEntity, c.WalkLength)
	}
	if c.WindowSize < 1 || c.Epochs < 1 || c.NegativeSamples < 0 {
		return fmt.Errorf("window %d, epochs %d, negatives %d: out of range", c.WindowSize, c.Epochs, c.NegativeSamples)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate %g: must be positive", c.LearningRate)
	}
	return nil
}

// StructuralTrainer learns entity vectors from strength-weighted random
// walks with skip-gram negative sampling.
//
// The SGD pass is intentionally single-threaded: lock-free parallel
// updates would race on shared rows and break the bit-for-bit
// reproducibility contract. Walk generation, which dominates on large
// graphs, still fans out.
type StructuralTrainer struct {
	cfg    TrainConfig
	logger *slog.Logger
}

// NewStructuralTrainer creates a trainer. A nil logger falls back to
// slog.Default().
func NewStructuralTrainer(cfg TrainConfig, logger *slog.Logger) *StructuralTrainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuralTrainer{cfg: cfg, logger: logger}
}

// Train runs the full walk + skip-gram pipeline and returns the structural
// space. Cancelling ctx aborts between walks and discards all partial
// state. Isolated entities keep their seeded init vectors.
func (t *StructuralTrainer) Train(ctx context.Context, st *graph.Store) (*Space, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	wg, err := buildWalkGraph(st)
	if err != nil {
		return nil, err
	}
	n := len(wg.ids)
	dim := t.cfg.Dimensions

	walks := wg.generateWalks(t.cfg.WalksPerEntity, t.cfg.WalkLength, t.cfg.Seed, t.cfg.WalkParallelism)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.logger.Debug("walk corpus generated",
		slog.Int("entities", n),
		slog.Int("walks", len(walks)))

	// syn0 holds the entity vectors, syn1 the output weights. Both are
	// flat n*dim arrays indexed by entity position in id order.
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	syn0 := make([]float32, n*dim)
	for i := range syn0 {
		syn0[i] = float32((rng.Float64() - 0.5) / float64(dim))
	}
	syn1 := make([]float32, n*dim)

	negTable := buildNegativeTable(walks, n)

	var totalPositions float64
	for _, walk := range walks {
		totalPositions += float64(len(walk))
	}
	totalPositions *= float64(t.cfg.Epochs)

	var processed float64
	lr := t.cfg.LearningRate
	scratch := make([]float32, dim)

	for epoch := range t.cfg.Epochs {
		for _, walk := range walks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for pos, center := range walk {
				alpha := lr * (1 - processed/totalPositions)
				if alpha < lr*minLearningRateFactor {
					alpha = lr * minLearningRateFactor
				}
				processed++

				reduced := rng.Intn(t.cfg.WindowSize)
				for off := reduced - t.cfg.WindowSize; off <= t.cfg.WindowSize-reduced; off++ {
					c := pos + off
					if off == 0 || c < 0 || c >= len(walk) {
						continue
					}
					t.trainPair(syn0, syn1, walk[c], center, alpha, rng, negTable, scratch)
				}
			}
		}
		t.logger.Debug("structural epoch complete",
			slog.Int("epoch", epoch+1),
			slog.Int("of", t.cfg.Epochs))
	}

	vecs := make([][]float32, n)
	for i := range n {
		row := make([]float32, dim)
		copy(row, syn0[i*dim:(i+1)*dim])
		vecs[i] = row
	}

	t.logger.Info("structural training complete",
		slog.Int("entities", n),
		slog.Int("dimensions", dim),
		slog.Duration("elapsed", time.Since(start)))

	return NewSpace(dim, wg.ids, vecs), nil
}

// trainPair applies one skip-gram update: the context row of syn0 learns
// to score the center positively and sampled noise entities negatively.
func (t *StructuralTrainer) trainPair(syn0, syn1 []float32, contextIdx, centerIdx int, alpha float64, rng *rand.Rand, negTable []int, scratch []float32) {
	dim := t.cfg.Dimensions
	input := syn0[contextIdx*dim : (contextIdx+1)*dim]
	for i := range scratch {
		scratch[i] = 0
	}

	for d := 0; d <= t.cfg.NegativeSamples; d++ {
		var target int
		var label float64
		if d == 0 {
			target, label = centerIdx, 1
		} else {
			target = negTable[rng.Intn(len(negTable))]
			if target == centerIdx {
				continue
			}
		}
		output := syn1[target*dim : (target+1)*dim]

		var logit float64
		for i := range input {
			logit += float64(input[i]) * float64(output[i])
		}

		var g float64
		switch {
		case logit > maxExp:
			g = (label - 1) * alpha
		case logit < -maxExp:
			g = label * alpha
		default:
			g = (label - 1/(1+math.Exp(-logit))) * alpha
		}
		if g == 0 {
			continue
		}

		gf := float32(g)
		for i := range output {
			scratch[i] += gf * output[i]
			output[i] += gf * input[i]
		}
	}

	for i := range input {
		input[i] += scratch[i]
	}
}

// buildNegativeTable fills the noise distribution table with entity
// indices proportional to corpus frequency raised to 3/4.
func buildNegativeTable(walks [][]int, n int) []int {
	counts := make([]float64, n)
	for _, walk := range walks {
		for _, idx := range walk {
			counts[idx]++
		}
	}

	var total float64
	for i := range counts {
		counts[i] = math.Pow(counts[i], 0.75)
		total += counts[i]
	}

	table := make([]int, negTableSize)
	if total == 0 {
		for i := range table {
			table[i] = i % n
		}
		return table
	}

	entity := 0
	threshold := counts[0] / total
	for i := range table {
		table[i] = entity
		if float64(i+1)/negTableSize > threshold && entity < n-1 {
			entity++
			threshold += counts[entity] / total
		}
	}
	return table
}
