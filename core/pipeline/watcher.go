package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/graph"
)

// DefaultDebounce coalesces bursts of file events into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// WatchConfig configures a file-driven rebuild loop.
type WatchConfig struct {
	// EntitiesPath and TriplesPath are the ingestion files to reload.
	EntitiesPath string
	TriplesPath  string

	// Placeholders enables auto-created endpoints during reload.
	Placeholders bool

	// Build parameterizes every rebuild.
	Build Config

	// Debounce is the quiet period after the last event before a
	// rebuild starts. Zero means DefaultDebounce.
	Debounce time.Duration

	// OnBuild is called with each successfully published snapshot.
	OnBuild func(*fusion.Snapshot)

	// Logger receives watch events. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// Watcher rebuilds the unified space when ingestion files change. The
// published snapshot swaps atomically: readers holding the old one keep
// a consistent space, new readers see the new one.
type Watcher struct {
	cfg     WatchConfig
	encoder embed.Encoder
	logger  *slog.Logger
	current atomic.Pointer[fusion.Snapshot]
}

// NewWatcher creates a watcher over the configured ingestion files.
func NewWatcher(enc embed.Encoder, cfg WatchConfig) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{cfg: cfg, encoder: enc, logger: logger}
}

// Current returns the most recently published snapshot, nil before the
// first successful build.
func (w *Watcher) Current() *fusion.Snapshot {
	return w.current.Load()
}

// Watch builds once, then rebuilds after every debounced change to the
// ingestion files until ctx is cancelled. A failed rebuild keeps the
// previous snapshot and the loop running; only the initial build is
// fatal.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the parent directories: editors replace files by rename, so
	// watching the paths directly loses them after the first save.
	watched := map[string]bool{
		w.cfg.EntitiesPath: true,
		w.cfg.TriplesPath:  true,
	}
	dirs := map[string]bool{}
	for path := range watched {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("ingestion file changed",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
				pending = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			if err := w.rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Warn("rebuild failed, keeping previous snapshot",
					slog.String("error", err.Error()))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// rebuild reloads the graph from disk, runs the pipeline, and publishes
// the new snapshot.
func (w *Watcher) rebuild(ctx context.Context) error {
	var opts []graph.StoreOption
	if w.cfg.Placeholders {
		opts = append(opts, graph.WithPlaceholders())
	}
	st, err := graph.Load(w.cfg.EntitiesPath, w.cfg.TriplesPath, opts...)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	runner := NewRunner(st, w.encoder, w.cfg.Build, w.logger)
	snap, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	w.current.Store(snap)
	if w.cfg.OnBuild != nil {
		w.cfg.OnBuild(snap)
	}
	w.logger.Info("snapshot published",
		slog.String("version", snap.Version),
		slog.Int("entities", snap.Len()))
	return nil
}
