// Package metrics holds per-sample accumulators for closed-loop runs.
package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/loopsim/internal/loop"
)

var factories = map[string]func(threshold float64) loop.Metric{
	"control_effort":   func(float64) loop.Metric { return NewControlEffort() },
	"saturation_ratio": func(float64) loop.Metric { return NewSaturationRatio() },
	"stability":        func(th float64) loop.Metric { return NewStability(th) },
	"peak_response":    func(float64) loop.Metric { return NewPeak() },
	"iae":              func(float64) loop.Metric { return NewIAE() },
	"ise":              func(float64) loop.Metric { return NewISE() },
	"final_error":      func(float64) loop.Metric { return NewFinalError() },
}

// Default returns one instance of every metric. threshold bounds the
// stability band.
func Default(threshold float64) []loop.Metric {
	out := make([]loop.Metric, 0, len(factories))
	for _, name := range Names() {
		out = append(out, factories[name](threshold))
	}
	return out
}

// ByName builds the named metrics.
func ByName(names []string, threshold float64) ([]loop.Metric, error) {
	out := make([]loop.Metric, 0, len(names))
	for _, n := range names {
		fn, ok := factories[n]
		if !ok {
			return nil, fmt.Errorf("unknown metric: %s (available: %v)", n, Names())
		}
		out = append(out, fn(threshold))
	}
	return out, nil
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
