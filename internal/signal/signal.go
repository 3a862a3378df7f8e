package signal

import (
	"fmt"
	"math"
)

// Signal is a sequence of values aligned one-to-one with a TimeGrid.
type Signal []float64

func (s Signal) Clone() Signal {
	c := make(Signal, len(s))
	copy(c, s)
	return c
}

// Aligned checks len(s) == len(g).
func (s Signal) Aligned(g TimeGrid) error {
	if len(s) != len(g) {
		return fmt.Errorf("%w: signal has %d samples, grid has %d", ErrLengthMismatch, len(s), len(g))
	}
	return nil
}

func (s Signal) Scale(k float64) Signal {
	out := make(Signal, len(s))
	for i, v := range s {
		out[i] = k * v
	}
	return out
}

func (s Signal) Add(other Signal) Signal {
	out := s.Clone()
	for i := range out {
		if i < len(other) {
			out[i] += other[i]
		}
	}
	return out
}

// Last returns the final sample, NaN for an empty signal.
func (s Signal) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

func Zero(g TimeGrid) Signal {
	return make(Signal, len(g))
}

func Constant(g TimeGrid, v float64) Signal {
	s := make(Signal, len(g))
	for i := range s {
		s[i] = v
	}
	return s
}

// Step is before for t < at and after from t >= at on.
func Step(g TimeGrid, at, before, after float64) Signal {
	s := make(Signal, len(g))
	for i, t := range g {
		if t < at {
			s[i] = before
		} else {
			s[i] = after
		}
	}
	return s
}

// Ramp is offset + slope*t.
func Ramp(g TimeGrid, slope, offset float64) Signal {
	s := make(Signal, len(g))
	for i, t := range g {
		s[i] = offset + slope*t
	}
	return s
}

// Sine is offset + amplitude*sin(2πft + phase).
func Sine(g TimeGrid, amplitude, freqHz, phase, offset float64) Signal {
	s := make(Signal, len(g))
	for i, t := range g {
		s[i] = offset + amplitude*math.Sin(2*math.Pi*freqHz*t+phase)
	}
	return s
}
