// Package config loads the engine configuration: YAML file with
// RAYWALK_* environment overrides applied on top, defaulting to the
// published pipeline parameters.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/pipeline"
	"github.com/prismatic-systems/raywalk/core/projection"
)

// Config is the full configuration tree.
type Config struct {
	Graph      GraphConfig       `yaml:"graph"`
	Train      embed.TrainConfig `yaml:"train"`
	Semantic   SemanticConfig    `yaml:"semantic"`
	Fusion     FusionConfig      `yaml:"fusion"`
	Projection projection.Config `yaml:"projection"`
	Store      StoreConfig       `yaml:"store"`
}

// GraphConfig locates the ingestion files.
type GraphConfig struct {
	// Entities is the entity records file (yaml/json/jsonl).
	Entities string `yaml:"entities"`

	// Triples is the relation records file.
	Triples string `yaml:"triples"`

	// Placeholders auto-creates entities for unknown triple endpoints
	// instead of rejecting the batch.
	Placeholders bool `yaml:"placeholders"`
}

// SemanticConfig selects and tunes the semantic encoder.
type SemanticConfig struct {
	// Encoder is one of "local", "onnx", or "openai".
	Encoder string `yaml:"encoder"`

	// Dimension is the local encoder width; ignored by the others.
	Dimension int `yaml:"dimension"`

	// Model names the ONNX model repository or the OpenAI model.
	Model string `yaml:"model,omitempty"`

	// Cache memoizes encoded descriptions across rebuilds.
	Cache bool `yaml:"cache"`
}

// FusionConfig tunes the blend of the two spaces.
type FusionConfig struct {
	// Alpha weights the structural side in [0, 1].
	Alpha float64 `yaml:"alpha"`

	// ResizeMethod is "truncate" or "project".
	ResizeMethod string `yaml:"resize_method"`

	// ResizeSeed seeds the projection matrix of the project method.
	ResizeSeed int64 `yaml:"resize_seed"`
}

// StoreConfig locates snapshot persistence.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// Default returns the published parameters: alpha 0.6, structural
// dimension 128 at seed 42, local encoder at 64, UMAP with 15 neighbors
// and min_dist 0.1.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			Entities: "entities.yaml",
			Triples:  "triples.yaml",
		},
		Train: embed.DefaultTrainConfig(),
		Semantic: SemanticConfig{
			Encoder:   "local",
			Dimension: embed.DefaultLocalDimension,
			Cache:     true,
		},
		Fusion: FusionConfig{
			Alpha:        0.6,
			ResizeMethod: string(embed.ResizeTruncate),
			ResizeSeed:   42,
		},
		Projection: projection.DefaultConfig(),
		Store: StoreConfig{
			Path: "raywalk.db",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist, then applies RAYWALK_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvironment overrides file values from RAYWALK_* variables.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("RAYWALK_ENTITIES"); v != "" {
		c.Graph.Entities = v
	}
	if v := os.Getenv("RAYWALK_TRIPLES"); v != "" {
		c.Graph.Triples = v
	}
	if v := os.Getenv("RAYWALK_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Fusion.Alpha = f
		}
	}
	if v := os.Getenv("RAYWALK_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Train.Seed = n
			c.Projection.Seed = n
			c.Fusion.ResizeSeed = n
		}
	}
	if v := os.Getenv("RAYWALK_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Train.Dimensions = n
		}
	}
	if v := os.Getenv("RAYWALK_ENCODER"); v != "" {
		c.Semantic.Encoder = v
	}
	if v := os.Getenv("RAYWALK_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("RAYWALK_RESIZE_METHOD"); v != "" {
		c.Fusion.ResizeMethod = v
	}
}

// Validate rejects configurations the pipeline cannot run.
func (c *Config) Validate() error {
	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if c.Fusion.Alpha < 0 || c.Fusion.Alpha > 1 {
		return fmt.Errorf("fusion: alpha %g out of range [0, 1]", c.Fusion.Alpha)
	}
	if _, err := embed.ParseResizeMethod(c.Fusion.ResizeMethod); err != nil {
		return fmt.Errorf("fusion: %w", err)
	}
	switch c.Semantic.Encoder {
	case "local", "onnx", "openai":
	default:
		return fmt.Errorf("semantic: unknown encoder %q", c.Semantic.Encoder)
	}
	return nil
}

// ApplyQuick reduces training to the quick-iteration profile: fewer and
// shorter walks, fewer epochs. Useful while tuning ingestion.
func (c *Config) ApplyQuick() {
	c.Train.WalkLength = 10
	c.Train.WalksPerEntity = 4
	c.Train.Epochs = 2
}

// Pipeline assembles the build parameters for the runner.
func (c *Config) Pipeline() pipeline.Config {
	method, _ := embed.ParseResizeMethod(c.Fusion.ResizeMethod)
	return pipeline.Config{
		Alpha:        c.Fusion.Alpha,
		Train:        c.Train,
		Encode:       embed.DefaultEncodeConfig(),
		EncoderName:  c.Semantic.Encoder,
		ResizeMethod: method,
		ResizeSeed:   c.Fusion.ResizeSeed,
	}
}

// Encoder constructs the configured semantic encoder. The ONNX backend
// downloads its model on first use and degrades to the local encoder
// when the runtime is unavailable.
func (c *Config) Encoder(ctx context.Context, logger *slog.Logger) (embed.Encoder, error) {
	var enc embed.Encoder
	switch c.Semantic.Encoder {
	case "local":
		dim := c.Semantic.Dimension
		if dim <= 0 {
			dim = embed.DefaultLocalDimension
		}
		enc = embed.NewLocalEncoder(dim)
	case "onnx":
		onnx, err := embed.NewONNXEncoder(embed.ONNXConfig{
			ModelRepo: c.Semantic.Model,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		if err := onnx.EnsureModel(ctx); err != nil && logger != nil {
			// The encoder stays usable on its deterministic fallback.
			logger.Warn("onnx model unavailable, using hash encoder",
				slog.String("error", err.Error()))
		}
		enc = onnx
	case "openai":
		openai, err := embed.NewOpenAIEncoder(embed.OpenAIConfig{})
		if err != nil {
			return nil, err
		}
		enc = openai
	default:
		return nil, fmt.Errorf("unknown encoder %q", c.Semantic.Encoder)
	}

	if c.Semantic.Cache {
		cached, err := embed.NewCachingEncoder(enc, nil)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return enc, nil
}
