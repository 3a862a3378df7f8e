package signal

import (
	"errors"
	"math"
	"testing"
)

func TestLinspace(t *testing.T) {
	g, err := Linspace(0, 20, 2001)
	if err != nil {
		t.Fatalf("linspace failed: %v", err)
	}
	if len(g) != 2001 {
		t.Fatalf("expected 2001 samples, got %d", len(g))
	}
	if g[len(g)-1] != 20 {
		t.Errorf("expected last sample 20, got %f", g[len(g)-1])
	}
	if math.Abs(g.Step()-0.01) > 1e-12 {
		t.Errorf("expected step 0.01, got %f", g.Step())
	}
	if !g.IsUniform(1e-9) {
		t.Error("expected uniform grid")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLinspaceInvalid(t *testing.T) {
	tests := []struct {
		name        string
		start, stop float64
		n           int
	}{
		{"zero samples", 0, 1, 0},
		{"reversed", 1, 0, 10},
		{"nan", math.NaN(), 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Linspace(tt.start, tt.stop, tt.n); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}

	g, err := Linspace(3, 3, 1)
	if err != nil || len(g) != 1 || g[0] != 3 {
		t.Errorf("expected single sample grid, got %v (%v)", g, err)
	}
}

func TestArange(t *testing.T) {
	g, err := Arange(0, 1, 0.1)
	if err != nil {
		t.Fatalf("arange failed: %v", err)
	}
	if len(g) != 11 {
		t.Errorf("expected 11 samples, got %d", len(g))
	}
	if _, err := Arange(0, 1, 0); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		grid TimeGrid
		want error
	}{
		{"empty", TimeGrid{}, ErrEmptyGrid},
		{"repeated", TimeGrid{0, 1, 1}, ErrNonMonotonicGrid},
		{"decreasing", TimeGrid{0, 2, 1}, ErrNonMonotonicGrid},
		{"single", TimeGrid{0}, nil},
		{"nonuniform", TimeGrid{0, 1, 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if (TimeGrid{0, 1, 3}).IsUniform(1e-9) {
		t.Error("expected non-uniform grid")
	}
}

func TestGenerators(t *testing.T) {
	g, _ := Linspace(0, 20, 201)

	step := Step(g, 10, 0, 10)
	if step[g.Index(9.9)] != 0 || step[g.Index(10)] != 10 {
		t.Errorf("step switched at the wrong sample")
	}

	ramp := Ramp(g, 2, 1)
	if math.Abs(ramp.Last()-41) > 1e-12 {
		t.Errorf("expected ramp end 41, got %f", ramp.Last())
	}

	sine := Sine(g, 1, 0.25, 0, 0)
	if math.Abs(sine[g.Index(1)]-1) > 1e-12 {
		t.Errorf("expected sine peak at t=1, got %f", sine[g.Index(1)])
	}

	if err := Constant(g, 50).Aligned(g); err != nil {
		t.Errorf("constant not aligned: %v", err)
	}
	if err := Zero(g)[:10].Aligned(g); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestSpecGenerate(t *testing.T) {
	g, _ := Linspace(0, 20, 201)

	tests := []struct {
		spec Spec
		at   float64
		want float64
	}{
		{Spec{}, 5, 0},
		{Spec{Kind: KindConstant, Value: 50}, 5, 50},
		{Spec{Kind: KindStep, At: 10, After: 10}, 15, 10},
		{Spec{Kind: KindRamp, Slope: 1}, 5, 5},
		{Spec{Kind: KindSine, Amplitude: 2, Frequency: 0.25, Value: 1}, 1, 3},
	}
	for _, tt := range tests {
		s, err := tt.spec.Generate(g)
		if err != nil {
			t.Fatalf("%s: %v", tt.spec.Kind, err)
		}
		if got := s[g.Index(tt.at)]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s at %.1f: expected %f, got %f", tt.spec.Kind, tt.at, tt.want, got)
		}
	}

	if _, err := (Spec{Kind: "chirp"}).Generate(g); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}
