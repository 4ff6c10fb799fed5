package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/store"
)

// =============================================================================
// Export Command Flags
// =============================================================================

var (
	exportDB      string
	exportVersion string
	exportOut     string
)

// =============================================================================
// Export Command
// =============================================================================

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a snapshot to flat JSON files",
	Long: `Export writes a snapshot as three flat files in the output
directory: embeddings.json (row-major vectors), index.json (id to row),
and params.json (the build audit record).

Examples:
  raywalk export --out ./artifacts
  raywalk export --version 4f1c... --out ./artifacts`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDB, "db", "", "Snapshot database path")
	exportCmd.Flags().StringVar(&exportVersion, "version", "", "Snapshot version (default: latest)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := openSnapshot(cmd.Context(), cfg, exportDB, exportVersion)
	if err != nil {
		return err
	}
	if err := store.Export(exportOut, snap); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported snapshot %s (%d entities, dim %d) to %s\n",
		snap.Version, snap.Len(), snap.Dim, exportOut)
	return nil
}
