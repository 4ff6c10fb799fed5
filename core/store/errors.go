package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates a persisted vector whose length
	// disagrees with the space's recorded dimension. The stored space is
	// stale or corrupted and must not be served.
	ErrDimensionMismatch = errors.New("stored vector dimension mismatch")

	// ErrSnapshotNotFound indicates a version with no persisted space.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the expected and
// observed widths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("stored vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

// SnapshotNotFoundError wraps ErrSnapshotNotFound with the missing
// version.
type SnapshotNotFoundError struct {
	Version string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.Version)
}

func (e *SnapshotNotFoundError) Is(target error) bool {
	return target == ErrSnapshotNotFound
}

func (e *SnapshotNotFoundError) Unwrap() error {
	return ErrSnapshotNotFound
}
