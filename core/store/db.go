// Package store persists unified embedding snapshots to SQLite so a
// trained space can be reloaded and queried without retraining. It also
// writes the flat JSON exports and visualization feeds consumed outside
// the engine.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the SQLite handle behind snapshot persistence.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the snapshot database at path and
// applies the schema.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path is required")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_synchronous=normal", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database at %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database at %s: %w", path, err)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close releases the database handle.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// SetMeta stores one key-value pair in the graph metadata table.
func (d *DB) SetMeta(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO graph_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Meta reads one metadata value; missing keys return "".
func (d *DB) Meta(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM graph_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}
