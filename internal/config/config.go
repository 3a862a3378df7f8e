package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/signal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt                 = 0.01
	DefaultDuration           = 20.0
	DefaultGain               = 10.0
	DefaultStabilityThreshold = 1e3
)

// Feed-forward modes.
const (
	FeedForwardNone    = "none"
	FeedForwardInverse = "static_inverse" // scale * reference / G(0)
	FeedForwardSignal  = "signal"         // scale * generated signal
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is one closed-loop scenario.
type Config struct {
	Name               string            `yaml:"name,omitempty"`
	Plant              PlantConfig       `yaml:"plant"`
	Dt                 float64           `yaml:"dt"`
	Duration           float64           `yaml:"duration"`
	Gain               float64           `yaml:"gain"`
	DisturbanceGain    float64           `yaml:"disturbance_gain"`
	Saturation         loop.Saturation   `yaml:"saturation"`
	InitialCondition   float64           `yaml:"initial_condition"`
	Hold               string            `yaml:"hold"`
	Method             string            `yaml:"method"`
	Reference          signal.Spec       `yaml:"reference"`
	Disturbance        signal.Spec       `yaml:"disturbance"`
	FeedForward        FeedForwardConfig `yaml:"feed_forward"`
	Metrics            []string          `yaml:"metrics,omitempty"`
	StabilityThreshold float64           `yaml:"stability_threshold"`
}

// PlantConfig holds transfer function coefficients, highest power first.
type PlantConfig struct {
	Num []float64 `yaml:"num"`
	Den []float64 `yaml:"den"`
}

type FeedForwardConfig struct {
	Mode   string      `yaml:"mode"`
	Scale  float64     `yaml:"scale"`
	Signal signal.Spec `yaml:"signal,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:              PlantConfig{Num: []float64{0.73}, Den: []float64{1, 1}},
		Dt:                 DefaultDt,
		Duration:           DefaultDuration,
		Gain:               DefaultGain,
		DisturbanceGain:    loop.DefaultDisturbanceGain,
		Saturation:         loop.Symmetric(loop.DefaultSaturation),
		Hold:               lti.FOH.String(),
		Method:             loop.Recurrence.String(),
		Reference:          signal.Spec{Kind: signal.KindConstant, Value: 1},
		Disturbance:        signal.Spec{Kind: signal.KindZero},
		FeedForward:        FeedForwardConfig{Mode: FeedForwardNone, Scale: 1},
		StabilityThreshold: DefaultStabilityThreshold,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets are never mutated.
func (c *Config) Clone() *Config {
	out := *c
	out.Plant.Num = append([]float64(nil), c.Plant.Num...)
	out.Plant.Den = append([]float64(nil), c.Plant.Den...)
	out.Metrics = append([]string(nil), c.Metrics...)
	return &out
}

// Samples is the number of grid points covering [0, Duration].
func (c *Config) Samples() int {
	return int(c.Duration/c.Dt+0.5) + 1
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		err = multierr.Append(err, fmt.Errorf("%w: dt must be positive and finite, got %g", ErrInvalidConfig, c.Dt))
	}
	if !(c.Duration >= 0) || math.IsInf(c.Duration, 0) {
		err = multierr.Append(err, fmt.Errorf("%w: duration must be non-negative and finite, got %g", ErrInvalidConfig, c.Duration))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"gain", c.Gain},
		{"disturbance_gain", c.DisturbanceGain},
		{"initial_condition", c.InitialCondition},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidConfig, f.name, f.v))
		}
	}
	if _, perr := lti.NewTransferFunction(c.Plant.Num, c.Plant.Den); perr != nil {
		err = multierr.Append(err, fmt.Errorf("plant: %w", perr))
	}
	if serr := c.Saturation.Validate(); serr != nil {
		err = multierr.Append(err, serr)
	}
	if _, herr := lti.ParseHold(c.Hold); herr != nil {
		err = multierr.Append(err, herr)
	}
	if _, merr := loop.ParseMethod(c.Method); merr != nil {
		err = multierr.Append(err, merr)
	}
	err = multierr.Append(err, validKind("reference", c.Reference))
	err = multierr.Append(err, validKind("disturbance", c.Disturbance))

	switch c.FeedForward.Mode {
	case "", FeedForwardNone, FeedForwardInverse:
	case FeedForwardSignal:
		err = multierr.Append(err, validKind("feed_forward", c.FeedForward.Signal))
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown feed_forward mode %q", ErrInvalidConfig, c.FeedForward.Mode))
	}

	if len(c.Metrics) > 0 {
		if _, merr := metrics.ByName(c.Metrics, c.StabilityThreshold); merr != nil {
			err = multierr.Append(err, merr)
		}
	}
	return err
}

func validKind(field string, s signal.Spec) error {
	for _, k := range signal.Kinds() {
		if string(s.Kind) == k || s.Kind == "" {
			return nil
		}
	}
	return fmt.Errorf("%s: %w: %q", field, signal.ErrUnknownKind, s.Kind)
}
