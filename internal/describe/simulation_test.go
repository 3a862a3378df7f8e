package describe_test

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/loopsim/internal/analysis"
	"github.com/san-kum/loopsim/internal/describe"
	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
	"gonum.org/v1/gonum/floats"
)

func TestPredictionMatchesSimulatedLimitCycle(t *testing.T) {
	const (
		k      = 20.0
		m      = 100.0
		dt     = 0.02
		stop   = 300.0
		settle = 100.0
	)
	plant := lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1})

	cycles, err := describe.PredictLimitCycles(plant, describe.ClampedGain(k, m))
	if err != nil {
		t.Fatal(err)
	}
	predicted := cycles[0]

	g, err := signal.Arange(0, stop, dt)
	if err != nil {
		t.Fatal(err)
	}
	sim, err := loop.New(plant)
	if err != nil {
		t.Fatal(err)
	}
	cfg := loop.DefaultConfig()
	cfg.Gain = k
	cfg.Saturation = loop.Symmetric(m)
	res, err := sim.Run(context.Background(), loop.Input{
		Grid:        g,
		Reference:   signal.Constant(g, 1),
		Disturbance: signal.Zero(g),
	}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Diverged {
		t.Fatal("saturated loop should not diverge")
	}

	tail := res.Response[g.Index(settle):]
	hz, _, err := analysis.DominantFrequency(tail, dt)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(hz-predicted.Hz()) / predicted.Hz(); rel > 0.1 {
		t.Errorf("simulated %v Hz, predicted %v Hz", hz, predicted.Hz())
	}

	amp := (floats.Max(tail) - floats.Min(tail)) / 2
	if rel := math.Abs(amp-predicted.Amplitude) / predicted.Amplitude; rel > 0.3 {
		t.Errorf("simulated amplitude %v, predicted %v", amp, predicted.Amplitude)
	}
}
