package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() usage.
var (
	ErrDuplicateEntity   = errors.New("entity already exists")
	ErrDanglingReference = errors.New("triple references unknown entity")
	ErrUnknownEntity     = errors.New("unknown entity")
	ErrInvalidKind       = errors.New("invalid entity kind")
	ErrInvalidStrength   = errors.New("triple strength out of range")
	ErrEmptyID           = errors.New("entity id is empty")
)

// DuplicateEntityError wraps ErrDuplicateEntity with the colliding id.
type DuplicateEntityError struct {
	ID string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("entity already exists: %s", e.ID)
}

func (e *DuplicateEntityError) Is(target error) bool {
	return target == ErrDuplicateEntity
}

func (e *DuplicateEntityError) Unwrap() error {
	return ErrDuplicateEntity
}

// DanglingReferenceError wraps ErrDanglingReference with the triple and the
// endpoint that failed to resolve.
type DanglingReferenceError struct {
	Subject string
	Object  string
	Missing string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("triple (%s -> %s) references unknown entity: %s", e.Subject, e.Object, e.Missing)
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

func (e *DanglingReferenceError) Unwrap() error {
	return ErrDanglingReference
}

// UnknownEntityError wraps ErrUnknownEntity with the id that failed to
// resolve. Returned by lookups on the store and by query operations that
// take entity ids.
type UnknownEntityError struct {
	ID string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity: %s", e.ID)
}

func (e *UnknownEntityError) Is(target error) bool {
	return target == ErrUnknownEntity
}

func (e *UnknownEntityError) Unwrap() error {
	return ErrUnknownEntity
}

// InvalidKindError wraps ErrInvalidKind with the offending kind string.
type InvalidKindError struct {
	Kind EntityKind
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid entity kind: %q", string(e.Kind))
}

func (e *InvalidKindError) Is(target error) bool {
	return target == ErrInvalidKind
}

func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// InvalidStrengthError wraps ErrInvalidStrength with the rejected value.
type InvalidStrengthError struct {
	Strength float64
}

func (e *InvalidStrengthError) Error() string {
	return fmt.Sprintf("triple strength out of range [0, 1]: %g", e.Strength)
}

func (e *InvalidStrengthError) Is(target error) bool {
	return target == ErrInvalidStrength
}

func (e *InvalidStrengthError) Unwrap() error {
	return ErrInvalidStrength
}
