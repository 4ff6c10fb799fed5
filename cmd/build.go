package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/pipeline"
	"github.com/prismatic-systems/raywalk/core/store"
)

// =============================================================================
// Build Command Flags
// =============================================================================

var (
	buildEntities     string
	buildTriples      string
	buildAlpha        float64
	buildDB           string
	buildQuick        bool
	buildPlaceholders bool
	buildExportDir    string
)

// =============================================================================
// Build Command
// =============================================================================

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Train embeddings and build the unified space",
	Long: `Build runs the full pipeline: load the graph, train structural
embeddings from strength-weighted random walks, encode entity
descriptions, fuse both spaces, and persist the resulting snapshot.

Examples:
  raywalk build --entities entities.yaml --triples triples.yaml
  raywalk build -c config.yaml --alpha 0.8 --quick
  raywalk build --entities e.jsonl --triples t.jsonl --export out/`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildEntities, "entities", "", "Entity records file (yaml/json/jsonl)")
	buildCmd.Flags().StringVar(&buildTriples, "triples", "", "Triple records file")
	buildCmd.Flags().Float64VarP(&buildAlpha, "alpha", "a", -1, "Structural blend weight in [0,1]; -1 keeps the configured value")
	buildCmd.Flags().StringVar(&buildDB, "db", "", "Snapshot database path")
	buildCmd.Flags().BoolVar(&buildQuick, "quick", false, "Quick-train profile: fewer and shorter walks")
	buildCmd.Flags().BoolVar(&buildPlaceholders, "placeholders", false, "Auto-create entities for unknown triple endpoints")
	buildCmd.Flags().StringVar(&buildExportDir, "export", "", "Also write the flat JSON export to this directory")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if buildEntities != "" {
		cfg.Graph.Entities = buildEntities
	}
	if buildTriples != "" {
		cfg.Graph.Triples = buildTriples
	}
	if buildPlaceholders {
		cfg.Graph.Placeholders = true
	}
	if buildAlpha >= 0 {
		cfg.Fusion.Alpha = buildAlpha
	}
	if buildDB != "" {
		cfg.Store.Path = buildDB
	}
	if buildQuick {
		cfg.ApplyQuick()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []graph.StoreOption
	if cfg.Graph.Placeholders {
		opts = append(opts, graph.WithPlaceholders())
	}
	st, err := graph.Load(cfg.Graph.Entities, cfg.Graph.Triples, opts...)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	enc, err := cfg.Encoder(ctx, nil)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}

	snap, err := pipeline.NewRunner(st, enc, cfg.Pipeline(), nil).Run(ctx)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	if buildExportDir != "" {
		if err := store.Export(buildExportDir, snap); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version:   %s\n", snap.Version)
	fmt.Fprintf(out, "entities:  %d (%d triples)\n", st.Len(), st.TripleCount())
	fmt.Fprintf(out, "dimension: %d\n", snap.Dim)
	fmt.Fprintf(out, "alpha:     %g\n", snap.Alpha)
	fmt.Fprintf(out, "database:  %s\n", cfg.Store.Path)
	return nil
}
