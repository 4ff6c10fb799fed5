package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prismatic-systems/raywalk/core/fusion"
)

// Flat export file names. Together they let an external consumer reload
// the space without this engine: embeddings keyed by id, the id ordering,
// and the parameters the space was built with.
const (
	ExportEmbeddingsFile = "embeddings.json"
	ExportIndexFile      = "index.json"
	ExportParamsFile     = "params.json"
)

// exportParams is the audit record written alongside the vectors.
type exportParams struct {
	Version        string        `json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	Alpha          float64       `json:"alpha"`
	Dim            int           `json:"dim"`
	Params         fusion.Params `json:"params"`
	EffectiveAlpha []float64     `json:"effective_alpha"`
}

// Export writes the snapshot as three JSON files under dir, creating the
// directory if needed.
func Export(dir string, snap *fusion.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	embeddings := make(map[string][]float32, snap.Len())
	for i := range snap.Len() {
		embeddings[snap.IDs[i]] = snap.Vecs[i]
	}
	if err := writeJSON(filepath.Join(dir, ExportEmbeddingsFile), embeddings); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ExportIndexFile), snap.IDs); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ExportParamsFile), exportParams{
		Version:        snap.Version,
		CreatedAt:      snap.CreatedAt,
		Alpha:          snap.Alpha,
		Dim:            snap.Dim,
		Params:         snap.Params,
		EffectiveAlpha: snap.EffectiveAlpha,
	})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
