package metrics

import (
	"math"

	"github.com/san-kum/loopsim/internal/loop"
)

// IntegralError integrates |e| (IAE) or e² (ISE) over time with the
// trapezoidal rule, where e = reference - response.
type IntegralError struct {
	name    string
	squared bool
	sum     float64
	prevT   float64
	prevV   float64
	started bool
}

func NewIAE() *IntegralError { return &IntegralError{name: "iae"} }
func NewISE() *IntegralError { return &IntegralError{name: "ise", squared: true} }

func (m *IntegralError) Name() string { return m.name }

func (m *IntegralError) Observe(s loop.Sample) {
	e := s.Reference - s.Response
	v := math.Abs(e)
	if m.squared {
		v = e * e
	}
	if m.started {
		m.sum += 0.5 * (v + m.prevV) * (s.Time - m.prevT)
	}
	m.prevT, m.prevV, m.started = s.Time, v, true
}

func (m *IntegralError) Value() float64 { return m.sum }

func (m *IntegralError) Reset() {
	m.sum, m.prevT, m.prevV, m.started = 0, 0, 0, false
}

// FinalError is |reference - response| at the last observed sample.
type FinalError struct {
	last float64
}

func NewFinalError() *FinalError { return &FinalError{} }

func (f *FinalError) Name() string { return "final_error" }

func (f *FinalError) Observe(s loop.Sample) {
	f.last = math.Abs(s.Reference - s.Response)
}

func (f *FinalError) Value() float64 { return f.last }
func (f *FinalError) Reset()         { f.last = 0 }
