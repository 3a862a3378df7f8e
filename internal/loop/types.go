package loop

import (
	"fmt"
	"math"

	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
)

const (
	DefaultSaturation      = 100.0
	DefaultDisturbanceGain = -1.0
	DefaultDivergenceBound = 1e6
)

// Saturation clamps the control signal to [Lower, Upper].
type Saturation struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
}

// Symmetric returns the bound [-m, m].
func Symmetric(m float64) Saturation {
	return Saturation{Lower: -m, Upper: m}
}

func (s Saturation) Validate() error {
	if math.IsNaN(s.Lower) || math.IsNaN(s.Upper) || s.Lower > s.Upper {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidSaturation, s.Lower, s.Upper)
	}
	return nil
}

func (s Saturation) Clamp(v float64) float64 {
	if v < s.Lower {
		return s.Lower
	}
	if v > s.Upper {
		return s.Upper
	}
	return v
}

func (s Saturation) Contains(v float64) bool {
	return v >= s.Lower && v <= s.Upper
}

// Method selects how the plant response is advanced.
type Method int

const (
	Recurrence Method = iota
	Prefix
)

func (m Method) String() string {
	switch m {
	case Recurrence:
		return "recurrence"
	case Prefix:
		return "prefix"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "recurrence", "":
		return Recurrence, nil
	case "prefix":
		return Prefix, nil
	default:
		return Recurrence, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Config holds the scalar loop parameters.
type Config struct {
	Gain             float64
	Saturation       Saturation
	DisturbanceGain  float64
	InitialCondition float64
	Hold             lti.Hold
	Method           Method
	// DivergenceBound is the |y| above which a run is flagged as diverged.
	DivergenceBound float64
}

func DefaultConfig() Config {
	return Config{
		Saturation:      Symmetric(DefaultSaturation),
		DisturbanceGain: DefaultDisturbanceGain,
		Hold:            lti.FOH,
		Method:          Recurrence,
		DivergenceBound: DefaultDivergenceBound,
	}
}

// Input holds the signals driving one run. A nil FeedForward is the zero
// signal.
type Input struct {
	Grid        signal.TimeGrid
	Reference   signal.Signal
	Disturbance signal.Signal
	FeedForward signal.Signal
}

// Sample is what metrics and observers see for each time index.
type Sample struct {
	Index       int
	Time        float64
	Reference   float64
	Disturbance float64
	Raw         float64 // control before saturation
	Control     float64
	PlantInput  float64
	Response    float64
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnSample(s Sample) { f(s) }

type Result struct {
	Times       signal.TimeGrid
	Reference   signal.Signal
	Disturbance signal.Signal
	Raw         signal.Signal
	Control     signal.Signal
	PlantInput  signal.Signal
	Response    signal.Signal
	Metrics     map[string]float64
	Diverged    bool
	Steps       int
}
