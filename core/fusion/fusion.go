// Package fusion blends structural and semantic embedding spaces into the
// unified space that queries and projections run against.
package fusion

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/vecmath"
)

// Params is the reproducibility record carried by every snapshot: enough
// to rebuild the same space from the same graph.
type Params struct {
	Train        embed.TrainConfig `json:"train" yaml:"train"`
	Encoder      string            `json:"encoder" yaml:"encoder"`
	EncoderDim   int               `json:"encoder_dim" yaml:"encoder_dim"`
	ResizeMethod string            `json:"resize_method" yaml:"resize_method"`
	ResizeSeed   int64             `json:"resize_seed" yaml:"resize_seed"`
	Alpha        float64           `json:"alpha" yaml:"alpha"`
}

// Sources retains the normalized fusion inputs so the blend weight can
// change without retraining. Semantic rows are nil where the entity had
// no usable semantic vector.
type Sources struct {
	Structural [][]float32
	Semantic   [][]float32
}

// Snapshot is one immutable unified embedding space. Queries and
// projections only ever read it; changing alpha produces a new snapshot
// via Refuse. Rows are aligned: IDs[i], Kinds[i], Vecs[i], and
// EffectiveAlpha[i] describe the same entity, with IDs sorted ascending.
type Snapshot struct {
	Version        string
	CreatedAt      time.Time
	Alpha          float64
	Dim            int
	IDs            []string
	Kinds          []graph.EntityKind
	Vecs           [][]float32
	EffectiveAlpha []float64
	Params         Params
	Sources        *Sources
}

// Len returns the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.IDs)
}

// Index locates an entity by binary search over the sorted id list.
func (s *Snapshot) Index(id string) (int, bool) {
	i := sort.SearchStrings(s.IDs, id)
	if i < len(s.IDs) && s.IDs[i] == id {
		return i, true
	}
	return 0, false
}

// Vector returns the unified vector for id.
func (s *Snapshot) Vector(id string) ([]float32, bool) {
	i, ok := s.Index(id)
	if !ok {
		return nil, false
	}
	return s.Vecs[i], true
}

// Kind returns the recorded entity kind at row i, or an empty kind when
// the build had no annotation for it.
func (s *Snapshot) Kind(i int) graph.EntityKind {
	if i < 0 || i >= len(s.Kinds) {
		return ""
	}
	return s.Kinds[i]
}

// Config controls a Build.
type Config struct {
	// Alpha weights the structural side; the semantic side gets 1-Alpha.
	Alpha float64

	// ResizeMethod brings semantic vectors to the structural width.
	ResizeMethod embed.ResizeMethod

	// ResizeSeed seeds the projection matrix for the project method.
	ResizeSeed int64

	// Kinds annotates entities for query results. Ids missing from the
	// map keep a blank kind.
	Kinds map[string]graph.EntityKind

	// Params is the caller's audit record. Build stamps the fusion
	// fields before attaching it to the snapshot.
	Params Params

	// Logger receives build events. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// Fuse blends one structural vector with one semantic vector: both sides
// are L2-normalized, combined as alpha*structural + (1-alpha)*semantic,
// and the result normalized again. An empty semantic side returns the
// normalized structural vector. A blend that cancels to zero magnitude
// stays the zero vector.
func Fuse(structural, semantic []float32, alpha float64) []float32 {
	sn, _ := vecmath.NormalizeCopy(structural)
	if len(semantic) == 0 {
		return sn
	}
	sem, mag := vecmath.NormalizeCopy(semantic)
	if mag == 0 {
		return sn
	}

	out := make([]float32, len(sn))
	vecmath.AxpyInPlace(float32(alpha), sn, out)
	vecmath.AxpyInPlace(float32(1-alpha), sem, out)
	vecmath.NormalizeInPlace(out)
	return out
}

// Build fuses the two spaces into a fresh snapshot. Every structural
// entity gets a unified vector; entities without a semantic vector are
// fused at an effective alpha of 1 and recorded as such. The structural
// id set defines the snapshot; semantic-only ids are ignored.
func Build(structural, semantic *embed.Space, cfg Config) (*Snapshot, error) {
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	if structural == nil || structural.Len() == 0 {
		return nil, ErrNoStructural
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dim := structural.Dim()
	ids := structural.IDs()
	n := len(ids)

	var resizer *embed.Resizer
	if semantic != nil && semantic.Len() > 0 {
		method := cfg.ResizeMethod
		if method == "" {
			method = embed.ResizeTruncate
		}
		var err error
		resizer, err = embed.NewResizer(method, semantic.Dim(), dim, cfg.ResizeSeed)
		if err != nil {
			return nil, fmt.Errorf("build resizer: %w", err)
		}
	}

	sources := &Sources{
		Structural: make([][]float32, n),
		Semantic:   make([][]float32, n),
	}
	withSemantic := 0
	for i := range n {
		sn, _ := vecmath.NormalizeCopy(structural.At(i))
		sources.Structural[i] = sn

		if resizer == nil {
			continue
		}
		raw, ok := semantic.Vector(ids[i])
		if !ok {
			continue
		}
		sem, mag := vecmath.NormalizeCopy(resizer.Apply(raw))
		if mag == 0 {
			// A semantic vector that normalizes away carries no signal;
			// the entity fuses as if it had none.
			continue
		}
		sources.Semantic[i] = sem
		withSemantic++
	}

	vecs, eff := fuseSources(sources, cfg.Alpha, dim)

	params := cfg.Params
	params.Alpha = cfg.Alpha
	if resizer != nil {
		params.ResizeMethod = string(resizer.Method())
		params.ResizeSeed = cfg.ResizeSeed
	}

	kinds := make([]graph.EntityKind, n)
	for i, id := range ids {
		kinds[i] = cfg.Kinds[id]
	}

	snap := &Snapshot{
		Version:        uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Alpha:          cfg.Alpha,
		Dim:            dim,
		IDs:            ids,
		Kinds:          kinds,
		Vecs:           vecs,
		EffectiveAlpha: eff,
		Params:         params,
		Sources:        sources,
	}

	logger.Info("unified space built",
		slog.String("version", snap.Version),
		slog.Int("entities", n),
		slog.Int("with_semantic", withSemantic),
		slog.Int("dimensions", dim),
		slog.Float64("alpha", cfg.Alpha))
	return snap, nil
}

// Refuse produces a new snapshot at a different blend weight from the
// retained normalized sources, without retraining. The input snapshot is
// left untouched.
func Refuse(snap *Snapshot, newAlpha float64) (*Snapshot, error) {
	if err := validateAlpha(newAlpha); err != nil {
		return nil, err
	}
	if snap.Sources == nil || len(snap.Sources.Structural) != snap.Len() {
		return nil, ErrNoSources
	}

	vecs, eff := fuseSources(snap.Sources, newAlpha, snap.Dim)

	params := snap.Params
	params.Alpha = newAlpha

	return &Snapshot{
		Version:        uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Alpha:          newAlpha,
		Dim:            snap.Dim,
		IDs:            snap.IDs,
		Kinds:          snap.Kinds,
		Vecs:           vecs,
		EffectiveAlpha: eff,
		Params:         params,
		Sources:        snap.Sources,
	}, nil
}

// fuseSources blends every row. Rows without a semantic source copy the
// normalized structural vector and record an effective alpha of 1.
func fuseSources(sources *Sources, alpha float64, dim int) ([][]float32, []float64) {
	n := len(sources.Structural)
	vecs := make([][]float32, n)
	eff := make([]float64, n)

	for i := range n {
		sn := sources.Structural[i]
		sem := sources.Semantic[i]
		if sem == nil {
			out := make([]float32, dim)
			copy(out, sn)
			vecs[i] = out
			eff[i] = 1
			continue
		}

		out := make([]float32, dim)
		vecmath.AxpyInPlace(float32(alpha), sn, out)
		vecmath.AxpyInPlace(float32(1-alpha), sem, out)
		vecmath.NormalizeInPlace(out)
		vecs[i] = out
		eff[i] = alpha
	}
	return vecs, eff
}

func validateAlpha(alpha float64) error {
	if alpha < 0 || alpha > 1 {
		return &InvalidAlphaError{Alpha: alpha}
	}
	return nil
}
