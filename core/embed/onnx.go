package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

const (
	// DefaultONNXRepo is the sentence-transformer pulled when no model is
	// configured. MiniLM keeps the download small while beating the hash
	// encoder by a wide margin.
	DefaultONNXRepo      = "KnightsAnalytics/all-MiniLM-L6-v2"
	DefaultONNXDimension = 384
)

// ONNXConfig configures the transformer-backed encoder.
type ONNXConfig struct {
	// ModelRepo is the HuggingFace repository holding the ONNX model.
	ModelRepo string

	// Dimension is the output width of the configured model.
	Dimension int

	// CacheDir stores downloaded models. Defaults to ~/.raywalk/models.
	CacheDir string

	// ORTLibraryPath points at a specific onnxruntime shared library.
	ORTLibraryPath string

	// Logger receives load and fallback events. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// ONNXEncoder runs a sentence-transformer through onnxruntime. Until
// EnsureModel succeeds (or whenever loading fails) it degrades to the
// deterministic LocalEncoder so builds always complete. Dimension()
// reflects whichever backend is active; callers must finish EnsureModel
// before sizing a space off it.
type ONNXEncoder struct {
	cfg      ONNXConfig
	modelDir string
	fallback *LocalEncoder
	logger   *slog.Logger

	mu       sync.RWMutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	loaded   bool
}

// NewONNXEncoder creates the encoder without touching the network. Call
// EnsureModel to download and load the model.
func NewONNXEncoder(cfg ONNXConfig) (*ONNXEncoder, error) {
	if cfg.ModelRepo == "" {
		cfg.ModelRepo = DefaultONNXRepo
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultONNXDimension
	}
	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.CacheDir = filepath.Join(home, ".raywalk", "models")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create model cache dir: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ONNXEncoder{
		cfg:      cfg,
		modelDir: filepath.Join(cfg.CacheDir, filepath.Base(cfg.ModelRepo)),
		fallback: NewLocalEncoder(DefaultLocalDimension),
		logger:   logger,
	}, nil
}

func (o *ONNXEncoder) Dimension() int {
	if o.isLoaded() {
		return o.cfg.Dimension
	}
	return o.fallback.Dimension()
}

func (o *ONNXEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !o.isLoaded() {
		return o.fallback.Embed(ctx, text)
	}
	results, err := o.runInference(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return results[0], nil
}

func (o *ONNXEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !o.isLoaded() {
		return o.fallback.EmbedBatch(ctx, texts)
	}
	return o.runInference(ctx, texts)
}

// EnsureModel downloads the model if missing and loads it into an ORT
// session. A failed load leaves the fallback active and returns the error
// so callers can decide whether hash embeddings are acceptable.
func (o *ONNXEncoder) EnsureModel(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.loaded {
		return nil
	}

	if _, err := os.Stat(o.modelDir); os.IsNotExist(err) {
		if err := o.downloadModel(ctx); err != nil {
			o.logger.Warn("model download failed, staying on hash encoder",
				slog.String("repo", o.cfg.ModelRepo),
				slog.String("error", err.Error()))
			return &fallbackError{op: "download model", err: err}
		}
	}

	if err := o.loadModel(); err != nil {
		o.logger.Warn("model load failed, staying on hash encoder",
			slog.String("repo", o.cfg.ModelRepo),
			slog.String("error", err.Error()))
		return &fallbackError{op: "load model", err: err}
	}

	o.loaded = true
	o.logger.Info("onnx encoder ready",
		slog.String("repo", o.cfg.ModelRepo),
		slog.Int("dimension", o.cfg.Dimension))
	return nil
}

// IsReady reports whether the transformer backend is active.
func (o *ONNXEncoder) IsReady() bool {
	return o.isLoaded()
}

// Fallback exposes the hash encoder used while the model is unavailable.
func (o *ONNXEncoder) Fallback() Encoder {
	return o.fallback
}

// Close releases the ORT session. The encoder reverts to the fallback.
func (o *ONNXEncoder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
	o.pipeline = nil
	o.loaded = false
	return nil
}

func (o *ONNXEncoder) isLoaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loaded
}

func (o *ONNXEncoder) runInference(_ context.Context, texts []string) ([][]float32, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.pipeline == nil {
		return nil, ErrEncoderUnavailable
	}
	output, err := o.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return output.Embeddings, nil
}

func (o *ONNXEncoder) downloadModel(_ context.Context) error {
	downloadOpts := hugot.NewDownloadOptions()
	modelPath, err := hugot.DownloadModel(o.cfg.ModelRepo, o.cfg.CacheDir, downloadOpts)
	if err != nil {
		return fmt.Errorf("download from HuggingFace: %w", err)
	}
	o.modelDir = modelPath
	return nil
}

func (o *ONNXEncoder) loadModel() error {
	sessionOpts := []options.WithOption{
		options.WithIntraOpNumThreads(runtime.NumCPU()),
	}
	if o.cfg.ORTLibraryPath != "" {
		sessionOpts = append(sessionOpts, options.WithOnnxLibraryPath(o.cfg.ORTLibraryPath))
	}

	session, err := hugot.NewORTSession(sessionOpts...)
	if err != nil {
		return fmt.Errorf("create ORT session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: o.modelDir,
		Name:      filepath.Base(o.cfg.ModelRepo),
	})
	if err != nil {
		session.Destroy()
		return fmt.Errorf("create pipeline: %w", err)
	}

	o.session = session
	o.pipeline = pipeline
	return nil
}

// fallbackError marks EnsureModel failures that left the local encoder in
// charge.
type fallbackError struct {
	op  string
	err error
}

func (e *fallbackError) Error() string {
	return fmt.Sprintf("%s: %v (falling back to local encoder)", e.op, e.err)
}

func (e *fallbackError) Is(target error) bool {
	return target == ErrEncoderUnavailable
}

func (e *fallbackError) Unwrap() error {
	return e.err
}
