// Package optim searches scenario parameters for the best metric value.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
)

// Tunable parameter names.
const (
	ParamGain            = "gain"
	ParamFeedForward     = "ff_scale"
	ParamDisturbanceGain = "disturbance_gain"
	ParamSaturation      = "saturation"
)

// Trial is one evaluated point of the grid.
type Trial struct {
	Params   map[string]float64
	Value    float64
	Diverged bool
	Err      error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	trials     []Trial
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trials returns every point evaluated by the last Search, in grid order.
func (g *GridSearch) Trials() []Trial { return g.trials }

// Search minimizes metricName. Diverged runs and failed builds score +Inf.
// Only context cancellation aborts the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d parameters, %d ranges", len(g.paramNames), len(g.ranges))
	}

	g.trials = g.trials[:0]
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, best, fmt.Errorf("optim: no finite %s over %d trials", metricName, len(g.trials))
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		trial := g.evaluate(ctx, current, buildExperiment, metricName)
		if trial.Err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		g.trials = append(g.trials, trial)

		if trial.Value < *best {
			*best = trial.Value
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	params map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
) Trial {
	trial := Trial{Params: params, Value: math.Inf(1)}

	exp, err := buildExperiment(params)
	if err != nil {
		trial.Err = err
		return trial
	}
	result, err := exp.Run(ctx)
	if err != nil {
		trial.Err = err
		return trial
	}
	trial.Diverged = result.Diverged
	val, ok := result.Metrics[metricName]
	switch {
	case !ok:
		trial.Err = fmt.Errorf("optim: metric %q not collected", metricName)
	case result.Diverged || math.IsNaN(val):
	default:
		trial.Value = val
	}
	return trial
}

// Apply returns a copy of base with the named parameters overridden.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		v := params[name]
		switch name {
		case ParamGain:
			cfg.Gain = v
		case ParamFeedForward:
			if cfg.FeedForward.Mode == "" || cfg.FeedForward.Mode == config.FeedForwardNone {
				cfg.FeedForward.Mode = config.FeedForwardInverse
			}
			cfg.FeedForward.Scale = v
		case ParamDisturbanceGain:
			cfg.DisturbanceGain = v
		case ParamSaturation:
			cfg.Saturation.Lower, cfg.Saturation.Upper = -v, v
		default:
			return nil, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return cfg, nil
}

// Linspace returns n values evenly spaced over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
