// Package describe implements describing functions of static odd
// nonlinearities and the harmonic-balance limit-cycle prediction built on
// them.
//
// A describing function N(A) is the ratio of the first harmonic of the
// nonlinearity's output to a sinusoidal input of amplitude A. For a loop of
// a nonlinearity followed by a linear plant G, a limit cycle of amplitude A
// and frequency ω is predicted where
//
//	1 + N(A) G(jω) = 0
//
// For the real-valued N of memoryless odd nonlinearities this requires
// G(jω) on the negative real axis.
package describe

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidNonlinearity = errors.New("describe: invalid nonlinearity")

// Nonlinearity is a static odd nonlinearity with a real describing
// function.
type Nonlinearity interface {
	Name() string
	// Output is the static characteristic.
	Output(x float64) float64
	// Gain is the describing function N(A) for A > 0.
	Gain(a float64) float64
	Validate() error
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidNonlinearity, name, v)
	}
	return nil
}

// Saturation is Slope*x clipped at |x| = Limit (input breakpoint).
type Saturation struct {
	Slope float64
	Limit float64
}

// ClampedGain models clamp(K*e, -m, m), the saturated proportional
// controller of the closed-loop simulator. k and m must be positive.
func ClampedGain(k, m float64) Saturation {
	return Saturation{Slope: k, Limit: m / k}
}

func (s Saturation) Name() string {
	return fmt.Sprintf("saturation(k=%g, a=%g)", s.Slope, s.Limit)
}

func (s Saturation) Validate() error {
	if err := positive("slope", s.Slope); err != nil {
		return err
	}
	return positive("limit", s.Limit)
}

func (s Saturation) Output(x float64) float64 {
	return s.Slope * math.Max(-s.Limit, math.Min(s.Limit, x))
}

func (s Saturation) Gain(a float64) float64 {
	if a <= s.Limit {
		return s.Slope
	}
	return s.Slope * saturationShape(s.Limit/a)
}

// saturationShape is (2/π)(asin r + r√(1-r²)) for r = limit/A in (0, 1].
func saturationShape(r float64) float64 {
	return 2 / math.Pi * (math.Asin(r) + r*math.Sqrt(1-r*r))
}

// Relay switches between -M and M.
type Relay struct {
	M float64
}

func (r Relay) Name() string { return fmt.Sprintf("relay(m=%g)", r.M) }

func (r Relay) Validate() error { return positive("m", r.M) }

func (r Relay) Output(x float64) float64 {
	switch {
	case x > 0:
		return r.M
	case x < 0:
		return -r.M
	default:
		return 0
	}
}

func (r Relay) Gain(a float64) float64 {
	return 4 * r.M / (math.Pi * a)
}

// DeadZone outputs nothing for |x| <= Width and Slope*(|x|-Width) beyond.
type DeadZone struct {
	Width float64
	Slope float64
}

func (d DeadZone) Name() string { return fmt.Sprintf("deadzone(d=%g, k=%g)", d.Width, d.Slope) }

func (d DeadZone) Validate() error {
	if !(d.Width >= 0) || math.IsInf(d.Width, 0) {
		return fmt.Errorf("%w: width must be non-negative and finite, got %g", ErrInvalidNonlinearity, d.Width)
	}
	return positive("slope", d.Slope)
}

func (d DeadZone) Output(x float64) float64 {
	switch {
	case x > d.Width:
		return d.Slope * (x - d.Width)
	case x < -d.Width:
		return d.Slope * (x + d.Width)
	default:
		return 0
	}
}

func (d DeadZone) Gain(a float64) float64 {
	if a <= d.Width {
		return 0
	}
	return d.Slope * (1 - saturationShape(d.Width/a))
}
