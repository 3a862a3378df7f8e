package loop

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates a signal not aligned with the time grid.
	ErrDimensionMismatch = errors.New("loop: signal length does not match time grid")

	// ErrInvalidSaturation indicates lower > upper or non-finite bounds.
	ErrInvalidSaturation = errors.New("loop: invalid saturation bounds")

	// ErrUnknownMethod indicates an unsupported simulation method.
	ErrUnknownMethod = errors.New("loop: unknown simulation method")
)

// SampleError wraps a failure with the sample it happened at.
type SampleError struct {
	Index   int
	Time    float64
	Wrapped error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (t=%.4f): %v", e.Index, e.Time, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
