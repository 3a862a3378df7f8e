package config

import (
	"sort"

	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/signal"
)

var (
	cruisePlant     = PlantConfig{Num: []float64{0.73}, Den: []float64{1, 1}}
	hoverPlant      = PlantConfig{Num: []float64{4}, Den: []float64{1, 1.2, 4}}
	thirdOrderPlant = PlantConfig{Num: []float64{1}, Den: []float64{1, 3, 3, 1}}

	// speed setpoint with a hill starting at t=10
	cruiseRef  = signal.Spec{Kind: signal.KindConstant, Value: 50}
	cruiseHill = signal.Spec{Kind: signal.KindStep, At: 10, Before: 0, After: 10}
)

// Presets groups scenarios by plant.
var Presets = map[string]map[string]*Config{
	"cruise": {
		"feedback": {
			Plant: cruisePlant, Dt: 0.01, Duration: 20, Gain: 10, DisturbanceGain: -2.1,
			Saturation: loop.Symmetric(100), Reference: cruiseRef, Disturbance: cruiseHill,
			FeedForward: FeedForwardConfig{Mode: FeedForwardNone},
		},
		"open_loop": {
			Plant: cruisePlant, Dt: 0.01, Duration: 20, Gain: 0, DisturbanceGain: -2.1,
			Saturation: loop.Symmetric(100), Reference: cruiseRef, Disturbance: cruiseHill,
			FeedForward: FeedForwardConfig{Mode: FeedForwardInverse, Scale: 1},
		},
		"feedforward": {
			Plant: cruisePlant, Dt: 0.01, Duration: 20, Gain: 0, DisturbanceGain: -2.1,
			Saturation: loop.Symmetric(100), Reference: signal.Spec{Kind: signal.KindRamp, Slope: 2.5},
			Disturbance: signal.Spec{Kind: signal.KindZero},
			FeedForward: FeedForwardConfig{Mode: FeedForwardInverse, Scale: 1},
		},
		"2dof": {
			Plant: cruisePlant, Dt: 0.01, Duration: 20, Gain: 10, DisturbanceGain: -2.1,
			Saturation: loop.Symmetric(100), Reference: cruiseRef, Disturbance: cruiseHill,
			FeedForward: FeedForwardConfig{Mode: FeedForwardInverse, Scale: 1},
		},
	},
	"hover": {
		"step": {
			Plant: hoverPlant, Dt: 0.01, Duration: 15, Gain: 2, DisturbanceGain: -1,
			Saturation:  loop.Saturation{Lower: 0, Upper: 20},
			Reference:   signal.Spec{Kind: signal.KindStep, At: 1, Before: 0, After: 1},
			Disturbance: signal.Spec{Kind: signal.KindStep, At: 8, Before: 0, After: 0.5},
			FeedForward: FeedForwardConfig{Mode: FeedForwardInverse, Scale: 1},
		},
	},
	"third_order": {
		"stable": {
			Plant: thirdOrderPlant, Dt: 0.01, Duration: 30, Gain: 4, DisturbanceGain: -1,
			Saturation:  loop.Symmetric(100),
			Reference:   signal.Spec{Kind: signal.KindStep, At: 0, Before: 0, After: 1},
			Disturbance: signal.Spec{Kind: signal.KindZero},
			FeedForward: FeedForwardConfig{Mode: FeedForwardNone},
		},
		// K above the critical gain 8: oscillation bounded by the saturation
		"limit_cycle": {
			Plant: thirdOrderPlant, Dt: 0.02, Duration: 300, Gain: 20, DisturbanceGain: -1,
			Saturation:  loop.Symmetric(100),
			Reference:   signal.Spec{Kind: signal.KindConstant, Value: 1},
			Disturbance: signal.Spec{Kind: signal.KindZero},
			FeedForward: FeedForwardConfig{Mode: FeedForwardNone},
		},
	},
}

// GetPreset returns a copy of the named preset with defaults filled in, or
// nil.
func GetPreset(plant, preset string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	p, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	cfg.Name = plant + "/" + preset
	def := DefaultConfig()
	if cfg.Hold == "" {
		cfg.Hold = def.Hold
	}
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.StabilityThreshold == 0 {
		cfg.StabilityThreshold = def.StabilityThreshold
	}
	return cfg
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plants lists the preset groups.
func Plants() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
