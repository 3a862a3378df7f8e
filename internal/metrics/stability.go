package metrics

import (
	"math"

	"github.com/san-kum/loopsim/internal/loop"
)

// Stability is the fraction of samples whose response stays within
// threshold. 1.0 means the output never left the band.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(smp loop.Sample) {
	s.samples++
	if math.IsNaN(smp.Response) || math.Abs(smp.Response) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Peak is the largest absolute response seen.
type Peak struct {
	peak float64
}

func NewPeak() *Peak { return &Peak{} }

func (p *Peak) Name() string { return "peak_response" }

func (p *Peak) Observe(s loop.Sample) {
	p.peak = math.Max(p.peak, math.Abs(s.Response))
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }
