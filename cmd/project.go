package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/projection"
	"github.com/prismatic-systems/raywalk/core/store"
)

// =============================================================================
// Project Command Flags
// =============================================================================

var (
	projectDB         string
	projectVersion    string
	projectMethod     string
	projectComponents int
	projectSeed       int64
	projectOut        string
	projectKindFilter string
	projectIDFilter   string
	projectEmphasis   string
)

// =============================================================================
// Project Command
// =============================================================================

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a snapshot into a 2D or 3D layout",
	Long: `Project reduces a persisted snapshot to display coordinates.

When the graph files are available the output is a full visualization
feed with per-entity colors, sizes, and blended edge colors; otherwise
it is the bare layout. Layouts are deterministic for a fixed snapshot,
method, and seed.

Examples:
  raywalk project --method umap --out layout.json
  raywalk project --method pca --components 3
  raywalk project --emphasize ray_4=2 --filter 'ray_*'`,
	RunE: runProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCmd.Flags().StringVar(&projectDB, "db", "", "Snapshot database path")
	projectCmd.Flags().StringVar(&projectVersion, "version", "", "Snapshot version (default: latest)")
	projectCmd.Flags().StringVar(&projectMethod, "method", "", "Projection method (umap or pca)")
	projectCmd.Flags().IntVar(&projectComponents, "components", 0, "Layout dimensionality (2 or 3)")
	projectCmd.Flags().Int64Var(&projectSeed, "seed", -1, "Layout seed (-1: configured seed)")
	projectCmd.Flags().StringVarP(&projectOut, "out", "o", "", "Output file (default: stdout)")
	projectCmd.Flags().StringVar(&projectKindFilter, "kind-filter", "*", "Glob over entity kinds")
	projectCmd.Flags().StringVar(&projectIDFilter, "filter", "*", "Glob over entity ids")
	projectCmd.Flags().StringVar(&projectEmphasis, "emphasize", "", "Highlight weights as id=weight,id=weight")
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	snap, err := openSnapshot(ctx, cfg, projectDB, projectVersion)
	if err != nil {
		return err
	}

	pcfg := cfg.Projection
	if projectMethod != "" {
		if pcfg.Method, err = projection.ParseMethod(projectMethod); err != nil {
			return err
		}
	}
	if projectComponents != 0 {
		pcfg.Components = projectComponents
	}
	if projectSeed >= 0 {
		pcfg.Seed = projectSeed
	}

	engine, err := projection.NewEngine(projection.DefaultCacheSize, nil)
	if err != nil {
		return err
	}
	layout, err := engine.Project(ctx, snap, pcfg)
	if err != nil {
		return err
	}

	emphasis, err := parseEmphasis(projectEmphasis)
	if err != nil {
		return err
	}

	// With the graph at hand the layout becomes a renderable feed;
	// without it the coordinates alone still serve.
	var payload any = layout
	if st, gerr := graph.Load(cfg.Graph.Entities, cfg.Graph.Triples); gerr == nil {
		feed, ferr := store.BuildFeed(st, layout, snap.Version, emphasis, projectKindFilter, projectIDFilter)
		if ferr != nil {
			return ferr
		}
		payload = feed
	}

	out := cmd.OutOrStdout()
	if projectOut != "" {
		f, err := os.Create(projectOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if projectOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s layout (%d entities) to %s\n",
			layout.Method, len(layout.IDs), projectOut)
	}
	return nil
}
