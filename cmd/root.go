// Package cmd provides the raywalk CLI: build a unified embedding space
// from a relationship graph, query it, project it for visualization, and
// export it for external consumers.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/config"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "raywalk",
	Short: "Relationship embedding and semantic query engine",
	Long: `Raywalk ingests a typed relationship graph with entity descriptions,
trains structural and semantic embeddings, fuses them into one unified
vector space, and serves similarity, analogy, radius, and cluster
queries plus 2D/3D projections over it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config YAML")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}
