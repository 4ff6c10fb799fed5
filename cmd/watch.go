package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/pipeline"
	"github.com/prismatic-systems/raywalk/core/store"
)

// =============================================================================
// Watch Command Flags
// =============================================================================

var (
	watchEntities     string
	watchTriples      string
	watchDB           string
	watchPlaceholders bool
	watchNoPersist    bool
)

// =============================================================================
// Watch Command
// =============================================================================

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the unified space whenever the graph files change",
	Long: `Watch builds once, then monitors the entity and triple files and
rebuilds after every change. Each successful build is persisted as a new
snapshot version; a failed rebuild keeps the previous snapshot and the
loop running. Stop with Ctrl-C.

Examples:
  raywalk watch --entities entities.yaml --triples triples.yaml
  raywalk watch --no-persist`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchEntities, "entities", "", "Entities file (overrides config)")
	watchCmd.Flags().StringVar(&watchTriples, "triples", "", "Triples file (overrides config)")
	watchCmd.Flags().StringVar(&watchDB, "db", "", "Snapshot database path")
	watchCmd.Flags().BoolVar(&watchPlaceholders, "placeholders", false, "Auto-create endpoints for dangling references")
	watchCmd.Flags().BoolVar(&watchNoPersist, "no-persist", false, "Skip writing snapshots to the database")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchEntities != "" {
		cfg.Graph.Entities = watchEntities
	}
	if watchTriples != "" {
		cfg.Graph.Triples = watchTriples
	}
	if watchDB != "" {
		cfg.Store.Path = watchDB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	encoder, err := cfg.Encoder(ctx, logger)
	if err != nil {
		return err
	}

	var db *store.DB
	if !watchNoPersist {
		if db, err = store.Open(cfg.Store.Path); err != nil {
			return err
		}
		defer db.Close()
	}

	watcher := pipeline.NewWatcher(encoder, pipeline.WatchConfig{
		EntitiesPath: cfg.Graph.Entities,
		TriplesPath:  cfg.Graph.Triples,
		Placeholders: watchPlaceholders,
		Build:        cfg.Pipeline(),
		Logger:       logger,
		OnBuild: func(snap *fusion.Snapshot) {
			if db == nil {
				return
			}
			if err := db.Save(ctx, snap); err != nil {
				logger.Warn("persist snapshot failed",
					slog.String("version", snap.Version),
					slog.String("error", err.Error()))
			}
		},
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s and %s (Ctrl-C to stop)\n",
		cfg.Graph.Entities, cfg.Graph.Triples)
	if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
