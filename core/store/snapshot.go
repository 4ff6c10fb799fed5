package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prismatic-systems/raywalk/core/fusion"
	"github.com/prismatic-systems/raywalk/core/graph"
)

// SpaceInfo is one row of the spaces listing.
type SpaceInfo struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Alpha     float64   `json:"alpha"`
	Dim       int       `json:"dim"`
	Entities  int       `json:"entities"`
}

// Save persists a snapshot in one transaction: the spaces row carries the
// reproducibility params as JSON, the vector rows carry one float32 blob
// each. Saving the same version twice is an error; versions are
// immutable.
func (d *DB) Save(ctx context.Context, snap *fusion.Snapshot) error {
	params, err := json.Marshal(snap.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO spaces (version, created_at, alpha, dim, params) VALUES (?, ?, ?, ?, ?)`,
		snap.Version, snap.CreatedAt.UTC().Format(time.RFC3339Nano), snap.Alpha, snap.Dim, string(params))
	if err != nil {
		return fmt.Errorf("insert space %s: %w", snap.Version, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO space_vectors (version, idx, entity_id, kind, effective_alpha, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare vector insert: %w", err)
	}
	defer stmt.Close()

	for i := range snap.Len() {
		_, err := stmt.ExecContext(ctx,
			snap.Version, i, snap.IDs[i], string(snap.Kind(i)),
			snap.EffectiveAlpha[i], vectorToBlob(snap.Vecs[i]))
		if err != nil {
			return fmt.Errorf("insert vector %s: %w", snap.IDs[i], err)
		}
	}

	return tx.Commit()
}

// Load rebuilds a snapshot from its persisted rows. Every stored blob is
// validated against the space's recorded dimension; a disagreement means
// stale or corrupted state and fails with DimensionMismatchError. The
// reloaded snapshot carries no retained fusion sources, so changing alpha
// requires a rebuild from the graph, not a Refuse.
func (d *DB) Load(ctx context.Context, version string) (*fusion.Snapshot, error) {
	snap := &fusion.Snapshot{Version: version}

	var createdAt, params string
	err := d.db.QueryRowContext(ctx,
		`SELECT created_at, alpha, dim, params FROM spaces WHERE version = ?`, version).
		Scan(&createdAt, &snap.Alpha, &snap.Dim, &params)
	if err == sql.ErrNoRows {
		return nil, &SnapshotNotFoundError{Version: version}
	}
	if err != nil {
		return nil, fmt.Errorf("query space %s: %w", version, err)
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &snap.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT entity_id, kind, effective_alpha, embedding FROM space_vectors WHERE version = ? ORDER BY idx`,
		version)
	if err != nil {
		return nil, fmt.Errorf("query vectors %s: %w", version, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind string
		var eff float64
		var blob []byte
		if err := rows.Scan(&id, &kind, &eff, &blob); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if len(blob) != snap.Dim*4 {
			return nil, &DimensionMismatchError{Want: snap.Dim, Got: len(blob) / 4}
		}
		snap.IDs = append(snap.IDs, id)
		snap.Kinds = append(snap.Kinds, graph.EntityKind(kind))
		snap.EffectiveAlpha = append(snap.EffectiveAlpha, eff)
		snap.Vecs = append(snap.Vecs, blobToVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}
	return snap, nil
}

// LoadLatest loads the most recently created snapshot.
func (d *DB) LoadLatest(ctx context.Context) (*fusion.Snapshot, error) {
	var version string
	err := d.db.QueryRowContext(ctx,
		`SELECT version FROM spaces ORDER BY created_at DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return nil, &SnapshotNotFoundError{Version: "latest"}
	}
	if err != nil {
		return nil, fmt.Errorf("query latest space: %w", err)
	}
	return d.Load(ctx, version)
}

// Spaces lists every persisted snapshot, newest first.
func (d *DB) Spaces(ctx context.Context) ([]SpaceInfo, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.version, s.created_at, s.alpha, s.dim, COUNT(v.idx)
		FROM spaces s LEFT JOIN space_vectors v ON v.version = s.version
		GROUP BY s.version ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query spaces: %w", err)
	}
	defer rows.Close()

	var out []SpaceInfo
	for rows.Next() {
		var info SpaceInfo
		var createdAt string
		if err := rows.Scan(&info.Version, &createdAt, &info.Alpha, &info.Dim, &info.Entities); err != nil {
			return nil, fmt.Errorf("scan space row: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a persisted snapshot and its vectors.
func (d *DB) Delete(ctx context.Context, version string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM spaces WHERE version = ?`, version)
	if err != nil {
		return fmt.Errorf("delete space %s: %w", version, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &SnapshotNotFoundError{Version: version}
	}
	return nil
}
