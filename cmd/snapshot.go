package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prismatic-systems/raywalk/core/config"
	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/store"
)

// openSnapshot loads a persisted snapshot: the named version, or the
// most recent one when version is empty.
func openSnapshot(ctx context.Context, cfg *config.Config, dbPath, version string) (*fusion.Snapshot, error) {
	path := cfg.Store.Path
	if dbPath != "" {
		path = dbPath
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if version != "" {
		return db.Load(ctx, version)
	}
	return db.LoadLatest(ctx)
}

// parseEmphasis parses "id=weight,id=weight" flag values.
func parseEmphasis(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	weights := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		id, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || id == "" {
			return nil, fmt.Errorf("emphasis %q: want id=weight", part)
		}
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("emphasis %q: %w", part, err)
		}
		weights[id] = w
	}
	return weights, nil
}
