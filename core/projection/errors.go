package projection

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientEntities indicates too few entities for a method.
	ErrInsufficientEntities = errors.New("not enough entities to project")

	// ErrInvalidComponents indicates a target dimensionality other than
	// 2 or 3.
	ErrInvalidComponents = errors.New("components must be 2 or 3")

	// ErrUnknownMethod indicates an unrecognized projection method.
	ErrUnknownMethod = errors.New("unknown projection method")

	// ErrDecomposition indicates the SVD failed to converge.
	ErrDecomposition = errors.New("singular value decomposition failed")
)

// InsufficientEntitiesError reports how many entities the method needed
// against how many the snapshot holds.
type InsufficientEntitiesError struct {
	Have   int
	Need   int
	Method string
}

func (e *InsufficientEntitiesError) Error() string {
	return fmt.Sprintf("%s projection needs at least %d entities, have %d", e.Method, e.Need, e.Have)
}

func (e *InsufficientEntitiesError) Is(target error) bool {
	return target == ErrInsufficientEntities
}

func (e *InsufficientEntitiesError) Unwrap() error {
	return ErrInsufficientEntities
}

// UnknownMethodError reports the rejected method name.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown projection method %q", e.Method)
}

func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

func (e *UnknownMethodError) Unwrap() error {
	return ErrUnknownMethod
}
