package metrics

import (
	"math"

	"github.com/san-kum/loopsim/internal/loop"
)

// ControlEffort is the mean absolute control signal.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s loop.Sample) {
	c.sum += math.Abs(s.Control)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// SaturationRatio is the fraction of samples where the actuator limit was
// active.
type SaturationRatio struct {
	clipped int
	samples int
}

func NewSaturationRatio() *SaturationRatio { return &SaturationRatio{} }

func (r *SaturationRatio) Name() string { return "saturation_ratio" }

func (r *SaturationRatio) Observe(s loop.Sample) {
	r.samples++
	if s.Raw != s.Control {
		r.clipped++
	}
}

func (r *SaturationRatio) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.clipped) / float64(r.samples)
}

func (r *SaturationRatio) Reset() {
	r.clipped = 0
	r.samples = 0
}
