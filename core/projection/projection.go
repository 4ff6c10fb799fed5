// Package projection flattens unified embedding spaces into 2D or 3D
// layouts for visualization.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/prismatic-systems/raywalk/core/fusion"
)

// ============================================================================
// Methods
// ============================================================================

// Method selects the projection algorithm.
type Method string

const (
	// MethodPCA is the linear principal-component projection. Fast,
	// deterministic, preserves global variance.
	MethodPCA Method = "pca"

	// MethodUMAP is the neighbor-embedding projection. Preserves local
	// cluster structure at the cost of global distances.
	MethodUMAP Method = "umap"
)

// ValidMethods returns all projection methods.
func ValidMethods() []Method {
	return []Method{MethodPCA, MethodUMAP}
}

// IsValid checks if the method is recognized.
func (m Method) IsValid() bool {
	switch m {
	case MethodPCA, MethodUMAP:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod validates a method name from configuration. Empty input
// selects the neighbor embedding.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return MethodUMAP, nil
	}
	m := Method(s)
	if !m.IsValid() {
		return "", &UnknownMethodError{Method: s}
	}
	return m, nil
}

// ============================================================================
// Configuration
// ============================================================================

// Config controls one projection. Zero values fall back to the defaults
// below.
type Config struct {
	// Method selects the algorithm.
	Method Method `yaml:"method"`

	// Components is the layout dimensionality, 2 or 3.
	Components int `yaml:"components"`

	// Seed drives layout SGD and degenerate-init placement.
	Seed int64 `yaml:"seed"`

	// Neighbors is the kNN size for the neighbor embedding.
	Neighbors int `yaml:"neighbors"`

	// MinDist is the minimum spacing in the embedded layout. Zero means
	// the 0.1 default.
	MinDist float64 `yaml:"min_dist"`

	// Epochs is the number of layout optimization passes.
	Epochs int `yaml:"epochs"`
}

// DefaultConfig returns the published projection parameters.
func DefaultConfig() Config {
	return Config{
		Method:     MethodUMAP,
		Components: 2,
		Seed:       42,
		Neighbors:  15,
		MinDist:    0.1,
		Epochs:     200,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Method == "" {
		c.Method = def.Method
	}
	if c.Components == 0 {
		c.Components = def.Components
	}
	if c.Neighbors <= 0 {
		c.Neighbors = def.Neighbors
	}
	if c.MinDist <= 0 {
		c.MinDist = def.MinDist
	}
	if c.Epochs <= 0 {
		c.Epochs = def.Epochs
	}
	return c
}

func (c Config) validate() error {
	if !c.Method.IsValid() {
		return &UnknownMethodError{Method: string(c.Method)}
	}
	if c.Components != 2 && c.Components != 3 {
		return fmt.Errorf("components %d: %w", c.Components, ErrInvalidComponents)
	}
	return nil
}

// minEntities is the smallest snapshot each method can project.
func minEntities(c Config) int {
	switch c.Method {
	case MethodUMAP:
		return max(c.Neighbors+1, c.Components+1)
	default:
		return c.Components + 1
	}
}

// ============================================================================
// Engine
// ============================================================================

// Layout is a computed 2D or 3D arrangement. Rows align with IDs.
type Layout struct {
	Method     Method      `json:"method"`
	Components int         `json:"components"`
	IDs        []string    `json:"ids"`
	Coords     [][]float32 `json:"coords"`
}

type layoutKey struct {
	version    string
	method     Method
	components int
	seed       int64
	neighbors  int
	minDist    float64
	epochs     int
}

// DefaultCacheSize is the number of layouts kept by an engine.
const DefaultCacheSize = 32

// Engine computes layouts and memoizes them per snapshot version and
// parameter set. Projection is pure, so the cache is an optimization
// only; identical requests always return identical layouts.
type Engine struct {
	cache  *lru.Cache[layoutKey, *Layout]
	logger *slog.Logger
}

// NewEngine creates an engine with an LRU layout cache.
func NewEngine(cacheSize int, logger *slog.Logger) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[layoutKey, *Layout](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create layout cache: %w", err)
	}
	return &Engine{cache: cache, logger: logger}, nil
}

// Project computes (or recalls) the layout of a snapshot.
func (e *Engine) Project(ctx context.Context, snap *fusion.Snapshot, cfg Config) (*Layout, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if need := minEntities(cfg); snap.Len() < need {
		return nil, &InsufficientEntitiesError{
			Have:   snap.Len(),
			Need:   need,
			Method: string(cfg.Method),
		}
	}

	key := layoutKey{
		version:    snap.Version,
		method:     cfg.Method,
		components: cfg.Components,
		seed:       cfg.Seed,
		neighbors:  cfg.Neighbors,
		minDist:    cfg.MinDist,
		epochs:     cfg.Epochs,
	}
	if layout, ok := e.cache.Get(key); ok {
		e.logger.Debug("layout cache hit",
			slog.String("version", snap.Version),
			slog.String("method", string(cfg.Method)))
		return layout, nil
	}

	start := time.Now()
	var coords [][]float32
	var err error
	switch cfg.Method {
	case MethodPCA:
		coords, err = computePCA(snap.Vecs, cfg.Components)
	case MethodUMAP:
		coords, err = umapLayout(ctx, snap.Vecs, cfg)
	}
	if err != nil {
		return nil, err
	}

	layout := &Layout{
		Method:     cfg.Method,
		Components: cfg.Components,
		IDs:        snap.IDs,
		Coords:     coords,
	}
	e.cache.Add(key, layout)

	e.logger.Info("layout computed",
		slog.String("version", snap.Version),
		slog.String("method", string(cfg.Method)),
		slog.Int("components", cfg.Components),
		slog.Int("entities", snap.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return layout, nil
}
