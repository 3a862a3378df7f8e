package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/lti"
)

func TestBuildAndRunPresets(t *testing.T) {
	r := NewRegistry()
	for _, plant := range config.Plants() {
		for _, name := range config.ListPresets(plant) {
			cfg := config.GetPreset(plant, name)
			t.Run(cfg.Name, func(t *testing.T) {
				if cfg.Duration > 60 {
					t.Skip("long scenario")
				}
				exp, err := r.Build(cfg)
				if err != nil {
					t.Fatal(err)
				}
				res, err := exp.Run(context.Background())
				if err != nil {
					t.Fatal(err)
				}
				if len(res.Response) != cfg.Samples() {
					t.Errorf("expected %d samples, got %d", cfg.Samples(), len(res.Response))
				}
				if res.Diverged {
					t.Error("preset diverged")
				}
				if _, ok := res.Metrics["iae"]; !ok {
					t.Errorf("default metrics missing: %v", res.Metrics)
				}
			})
		}
	}
}

func TestCruiseFeedbackSettles(t *testing.T) {
	exp, err := NewRegistry().Build(config.GetPreset("cruise", "feedback"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	i := exp.Grid().Index(9.9)
	want := 7.3 * 50 / 8.3
	if math.Abs(res.Response[i]-want) > 0.01 {
		t.Errorf("response before the hill = %v, want %v", res.Response[i], want)
	}
}

func TestStaticInverseTracksReference(t *testing.T) {
	cfg := config.GetPreset("cruise", "open_loop")
	cfg.Disturbance.After = 0
	exp, err := NewRegistry().Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := exp.Input().FeedForward[0]; math.Abs(got-50/0.73) > 1e-9 {
		t.Errorf("feed-forward = %v, want %v", got, 50/0.73)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if last := res.Response[len(res.Response)-1]; math.Abs(last-50) > 0.01 {
		t.Errorf("final response = %v, want 50", last)
	}
}

func TestBuildErrors(t *testing.T) {
	r := NewRegistry()

	cfg := config.DefaultConfig()
	cfg.Dt = -1
	if _, err := r.Build(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.Plant = config.PlantConfig{Num: []float64{1}, Den: []float64{1, 0}}
	cfg.FeedForward.Mode = config.FeedForwardInverse
	if _, err := r.Build(cfg); !errors.Is(err, lti.ErrNoStaticGain) {
		t.Errorf("expected ErrNoStaticGain, got %v", err)
	}
}

func TestMetricSets(t *testing.T) {
	r := NewRegistry()
	ms, err := r.Metrics([]string{"actuator", "iae"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 3 {
		t.Errorf("expected 3 metrics, got %d", len(ms))
	}
	if _, err := r.Metrics([]string{"nope"}, 10); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := r.GetFeedForward("nope"); err == nil {
		t.Error("expected error for unknown feed-forward mode")
	}
}
