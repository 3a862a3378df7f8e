package signal

import (
	"fmt"
	"sort"
)

// Kind names a signal generator.
type Kind string

const (
	KindZero     Kind = "zero"
	KindConstant Kind = "constant"
	KindStep     Kind = "step"
	KindRamp     Kind = "ramp"
	KindSine     Kind = "sine"
)

// Spec describes a generated signal. Fields unused by a kind are ignored.
type Spec struct {
	Kind      Kind    `yaml:"kind" json:"kind"`
	Value     float64 `yaml:"value,omitempty" json:"value,omitempty"`
	At        float64 `yaml:"at,omitempty" json:"at,omitempty"`
	Before    float64 `yaml:"before,omitempty" json:"before,omitempty"`
	After     float64 `yaml:"after,omitempty" json:"after,omitempty"`
	Slope     float64 `yaml:"slope,omitempty" json:"slope,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
	Frequency float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Phase     float64 `yaml:"phase,omitempty" json:"phase,omitempty"`
}

var generators = map[Kind]func(TimeGrid, Spec) Signal{
	KindZero:     func(g TimeGrid, _ Spec) Signal { return Zero(g) },
	KindConstant: func(g TimeGrid, s Spec) Signal { return Constant(g, s.Value) },
	KindStep:     func(g TimeGrid, s Spec) Signal { return Step(g, s.At, s.Before, s.After) },
	KindRamp:     func(g TimeGrid, s Spec) Signal { return Ramp(g, s.Slope, s.Value) },
	KindSine:     func(g TimeGrid, s Spec) Signal { return Sine(g, s.Amplitude, s.Frequency, s.Phase, s.Value) },
}

// Generate evaluates the spec on g. An empty kind yields the zero signal.
func (s Spec) Generate(g TimeGrid) (Signal, error) {
	kind := s.Kind
	if kind == "" {
		kind = KindZero
	}
	fn, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownKind, s.Kind, Kinds())
	}
	return fn(g, s), nil
}

// Kinds lists the registered generators in sorted order.
func Kinds() []string {
	names := make([]string, 0, len(generators))
	for k := range generators {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}
