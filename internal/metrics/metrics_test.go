package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/loopsim/internal/loop"
	"github.com/san-kum/loopsim/internal/lti"
	"github.com/san-kum/loopsim/internal/signal"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(loop.Sample{Control: -2})
	m.Observe(loop.Sample{Control: 4})
	if m.Value() != 3 {
		t.Errorf("expected 3, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestSaturationRatio(t *testing.T) {
	m := NewSaturationRatio()
	m.Observe(loop.Sample{Raw: 500, Control: 100})
	m.Observe(loop.Sample{Raw: 50, Control: 50})
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name      string
		responses []float64
		want      float64
	}{
		{"empty", nil, 1.0},
		{"inside", []float64{1, -2, 3}, 1.0},
		{"one outside", []float64{1, 20, 3, 4}, 0.75},
		{"nan", []float64{math.NaN(), 1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStability(10)
			for _, y := range tt.responses {
				m.Observe(loop.Sample{Response: y})
			}
			if got := m.Value(); got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestIntegralErrors(t *testing.T) {
	iae, ise := NewIAE(), NewISE()
	// constant error of 2 over one second
	for _, tm := range []float64{0, 0.5, 1} {
		s := loop.Sample{Time: tm, Reference: 3, Response: 1}
		iae.Observe(s)
		ise.Observe(s)
	}
	if math.Abs(iae.Value()-2) > 1e-12 {
		t.Errorf("expected IAE 2, got %f", iae.Value())
	}
	if math.Abs(ise.Value()-4) > 1e-12 {
		t.Errorf("expected ISE 4, got %f", ise.Value())
	}
}

func TestMetricsInSimulation(t *testing.T) {
	g, _ := signal.Linspace(0, 20, 2001)
	sim, err := loop.New(lti.MustTransferFunction([]float64{0.73}, []float64{1, 1}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, m := range Default(1e3) {
		sim.AddMetric(m)
	}

	cfg := loop.DefaultConfig()
	cfg.Gain = 10
	res, err := sim.Run(context.Background(), loop.Input{Grid: g, Reference: signal.Constant(g, 50), Disturbance: signal.Zero(g)}, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Metrics["stability"] != 1 {
		t.Errorf("expected bounded response, got %f", res.Metrics["stability"])
	}
	if r := res.Metrics["saturation_ratio"]; r <= 0 || r > 0.1 {
		t.Errorf("expected brief initial saturation, got %f", r)
	}
	if e := res.Metrics["final_error"]; math.Abs(e-(50-7.3*50/8.3)) > 1e-3 {
		t.Errorf("unexpected final error %f", e)
	}
	if res.Metrics["peak_response"] < 43 {
		t.Errorf("unexpected peak %f", res.Metrics["peak_response"])
	}
}
