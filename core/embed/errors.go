package embed

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() usage.
var (
	ErrEmptyGraph          = errors.New("graph has no entities")
	ErrInvalidDimension    = errors.New("dimension must be positive")
	ErrUnknownResizeMethod = errors.New("unknown resize method")
	ErrEncoderUnavailable  = errors.New("semantic encoder unavailable")
)

// UnknownResizeMethodError wraps ErrUnknownResizeMethod with the rejected
// method name.
type UnknownResizeMethodError struct {
	Method string
}

func (e *UnknownResizeMethodError) Error() string {
	return fmt.Sprintf("unknown resize method: %q", e.Method)
}

func (e *UnknownResizeMethodError) Is(target error) bool {
	return target == ErrUnknownResizeMethod
}

func (e *UnknownResizeMethodError) Unwrap() error {
	return ErrUnknownResizeMethod
}
