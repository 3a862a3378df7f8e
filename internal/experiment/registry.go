package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/signal"
)

// FeedForwardFunc builds the feed-forward signal of a scenario.
type FeedForwardFunc func(plant *lti.TransferFunction, grid signal.TimeGrid, reference signal.Signal, ff config.FeedForwardConfig) (signal.Signal, error)

type Registry struct {
	feedForward map[string]FeedForwardFunc
	metricSets  map[string][]string
}

func NewRegistry() *Registry {
	r := &Registry{
		feedForward: make(map[string]FeedForwardFunc),
		metricSets:  make(map[string][]string),
	}

	r.feedForward[config.FeedForwardNone] = func(*lti.TransferFunction, signal.TimeGrid, signal.Signal, config.FeedForwardConfig) (signal.Signal, error) {
		return nil, nil
	}
	// static plant inversion: drives the open-loop output to the reference
	r.feedForward[config.FeedForwardInverse] = func(plant *lti.TransferFunction, _ signal.TimeGrid, ref signal.Signal, ff config.FeedForwardConfig) (signal.Signal, error) {
		g0, err := plant.StaticGain()
		if err != nil {
			return nil, fmt.Errorf("feed-forward: %w", err)
		}
		return ref.Scale(ff.Scale / g0), nil
	}
	r.feedForward[config.FeedForwardSignal] = func(_ *lti.TransferFunction, g signal.TimeGrid, _ signal.Signal, ff config.FeedForwardConfig) (signal.Signal, error) {
		s, err := ff.Signal.Generate(g)
		if err != nil {
			return nil, fmt.Errorf("feed-forward: %w", err)
		}
		return s.Scale(ff.Scale), nil
	}

	r.metricSets["default"] = metrics.Names()
	r.metricSets["tracking"] = []string{"iae", "ise", "final_error", "peak_response"}
	r.metricSets["actuator"] = []string{"control_effort", "saturation_ratio"}

	return r
}

func (r *Registry) GetFeedForward(mode string) (FeedForwardFunc, error) {
	if mode == "" {
		mode = config.FeedForwardNone
	}
	fn, ok := r.feedForward[mode]
	if !ok {
		return nil, fmt.Errorf("unknown feed-forward mode: %s", mode)
	}
	return fn, nil
}

func (r *Registry) ListFeedForward() []string {
	return sortedKeys(r.feedForward)
}

func (r *Registry) ListMetricSets() []string {
	return sortedKeys(r.metricSets)
}

// Metrics resolves names, which may also be metric set names.
func (r *Registry) Metrics(names []string, threshold float64) ([]loop.Metric, error) {
	if len(names) == 0 {
		names = []string{"default"}
	}
	var expanded []string
	for _, n := range names {
		if set, ok := r.metricSets[n]; ok {
			expanded = append(expanded, set...)
			continue
		}
		expanded = append(expanded, n)
	}
	return metrics.ByName(expanded, threshold)
}

// Build validates cfg and resolves it into a ready experiment.
func (r *Registry) Build(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plant, err := lti.NewTransferFunction(cfg.Plant.Num, cfg.Plant.Den)
	if err != nil {
		return nil, err
	}
	hold, err := lti.ParseHold(cfg.Hold)
	if err != nil {
		return nil, err
	}
	method, err := loop.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}

	grid, err := signal.Linspace(0, cfg.Dt*float64(cfg.Samples()-1), cfg.Samples())
	if err != nil {
		return nil, err
	}
	ref, err := cfg.Reference.Generate(grid)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	dist, err := cfg.Disturbance.Generate(grid)
	if err != nil {
		return nil, fmt.Errorf("disturbance: %w", err)
	}
	ffFn, err := r.GetFeedForward(cfg.FeedForward.Mode)
	if err != nil {
		return nil, err
	}
	ff, err := ffFn(plant, grid, ref, cfg.FeedForward)
	if err != nil {
		return nil, err
	}

	ms, err := r.Metrics(cfg.Metrics, cfg.StabilityThreshold)
	if err != nil {
		return nil, err
	}
	sim, err := loop.New(plant)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		sim.AddMetric(m)
	}

	loopCfg := loop.DefaultConfig()
	loopCfg.Gain = cfg.Gain
	loopCfg.Saturation = cfg.Saturation
	loopCfg.DisturbanceGain = cfg.DisturbanceGain
	loopCfg.InitialCondition = cfg.InitialCondition
	loopCfg.Hold = hold
	loopCfg.Method = method

	return &Experiment{
		cfg:       cfg,
		plant:     plant,
		input:     loop.Input{Grid: grid, Reference: ref, Disturbance: dist, FeedForward: ff},
		loopCfg:   loopCfg,
		simulator: sim,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
