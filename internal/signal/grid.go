// Package signal provides sample grids and the signals aligned with them.
package signal

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyGrid        = errors.New("signal: empty time grid")
	ErrNonMonotonicGrid = errors.New("signal: time grid must be strictly increasing")
	ErrInvalidGrid      = errors.New("signal: invalid grid parameters")
	ErrUnknownKind      = errors.New("signal: unknown signal kind")
	ErrLengthMismatch   = errors.New("signal: length mismatch")
)

// TimeGrid holds strictly increasing sample instants. The first sample is
// the initial-condition instant.
type TimeGrid []float64

// Linspace returns n evenly spaced samples over [start, stop].
func Linspace(start, stop float64, n int) (TimeGrid, error) {
	if n < 1 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil, fmt.Errorf("%w: n=%d", ErrInvalidGrid, n)
	}
	if n == 1 {
		return TimeGrid{start}, nil
	}
	if stop <= start {
		return nil, fmt.Errorf("%w: stop %g <= start %g", ErrInvalidGrid, stop, start)
	}
	g := make(TimeGrid, n)
	step := (stop - start) / float64(n-1)
	for i := range g {
		g[i] = start + float64(i)*step
	}
	g[n-1] = stop
	return g, nil
}

// Arange returns start, start+step, ... up to and including stop when it
// lands on the grid (within rounding).
func Arange(start, stop, step float64) (TimeGrid, error) {
	if !(step > 0) || math.IsInf(step, 0) || stop < start {
		return nil, fmt.Errorf("%w: start=%g stop=%g step=%g", ErrInvalidGrid, start, stop, step)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	g := make(TimeGrid, n)
	for i := range g {
		g[i] = start + float64(i)*step
	}
	return g, nil
}

// Validate checks the grid is non-empty and strictly increasing.
func (g TimeGrid) Validate() error {
	if len(g) == 0 {
		return ErrEmptyGrid
	}
	for i := 1; i < len(g); i++ {
		if !(g[i] > g[i-1]) {
			return fmt.Errorf("%w: t[%d]=%g, t[%d]=%g", ErrNonMonotonicGrid, i-1, g[i-1], i, g[i])
		}
	}
	return nil
}

// Step returns the nominal sample spacing, zero for single-sample grids.
func (g TimeGrid) Step() float64 {
	if len(g) < 2 {
		return 0
	}
	return (g[len(g)-1] - g[0]) / float64(len(g)-1)
}

// IsUniform reports whether every spacing is within tol (relative) of the
// nominal step.
func (g TimeGrid) IsUniform(tol float64) bool {
	h := g.Step()
	for i := 1; i < len(g); i++ {
		if math.Abs(g[i]-g[i-1]-h) > tol*h {
			return false
		}
	}
	return true
}

func (g TimeGrid) Duration() float64 {
	if len(g) == 0 {
		return 0
	}
	return g[len(g)-1] - g[0]
}

// Index returns the first sample index with t >= at, or len(g).
func (g TimeGrid) Index(at float64) int {
	for i, t := range g {
		if t >= at {
			return i
		}
	}
	return len(g)
}
