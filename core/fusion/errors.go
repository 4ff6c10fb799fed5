package fusion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAlpha indicates a blend weight outside [0, 1].
	ErrInvalidAlpha = errors.New("alpha out of range")

	// ErrNoStructural indicates a build without structural vectors.
	ErrNoStructural = errors.New("structural space is empty")

	// ErrNoSources indicates a refuse against a snapshot that did not
	// retain its normalized inputs.
	ErrNoSources = errors.New("snapshot has no retained sources")
)

// InvalidAlphaError reports the rejected blend weight.
type InvalidAlphaError struct {
	Alpha float64
}

func (e *InvalidAlphaError) Error() string {
	return fmt.Sprintf("alpha %g out of range [0, 1]", e.Alpha)
}

func (e *InvalidAlphaError) Is(target error) bool {
	return target == ErrInvalidAlpha
}

func (e *InvalidAlphaError) Unwrap() error {
	return ErrInvalidAlpha
}
