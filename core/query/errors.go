package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidClusterCount indicates a non-positive k.
	ErrInvalidClusterCount = errors.New("cluster count must be positive")

	// ErrInsufficientEntities indicates fewer entities than clusters.
	ErrInsufficientEntities = errors.New("not enough entities to cluster")
)

// InsufficientEntitiesError reports a clustering request against too
// small a snapshot.
type InsufficientEntitiesError struct {
	Have   int
	Need   int
	Method string
}

func (e *InsufficientEntitiesError) Error() string {
	return fmt.Sprintf("%s needs at least %d entities, have %d", e.Method, e.Need, e.Have)
}

func (e *InsufficientEntitiesError) Is(target error) bool {
	return target == ErrInsufficientEntities
}

func (e *InsufficientEntitiesError) Unwrap() error {
	return ErrInsufficientEntities
}
