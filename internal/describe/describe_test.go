package describe

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/loopsim/internal/lti"
)

// firstHarmonic numerically integrates the fundamental Fourier component of
// nl driven by a*sin(θ).
func firstHarmonic(nl Nonlinearity, a float64) float64 {
	const n = 20000
	var b float64
	for i := 0; i < n; i++ {
		th := 2 * math.Pi * (float64(i) + 0.5) / n
		b += nl.Output(a*math.Sin(th)) * math.Sin(th)
	}
	return b * 2 / n / a
}

func TestDescribingFunctionsMatchFourier(t *testing.T) {
	tests := []struct {
		name string
		nl   Nonlinearity
	}{
		{"saturation", Saturation{Slope: 2, Limit: 0.5}},
		{"clamped gain", ClampedGain(20, 100)},
		{"relay", Relay{M: 3}},
		{"dead zone", DeadZone{Width: 0.4, Slope: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, a := range []float64{0.1, 0.5, 1, 4, 25, 100} {
				got := tt.nl.Gain(a)
				want := firstHarmonic(tt.nl, a)
				if math.Abs(got-want) > 1e-3*math.Max(1, math.Abs(want)) {
					t.Errorf("N(%v) = %v, want %v", a, got, want)
				}
			}
		})
	}
}

func TestSaturationLinearRegion(t *testing.T) {
	s := ClampedGain(20, 100)
	if s.Limit != 5 {
		t.Fatalf("limit = %v, want 5", s.Limit)
	}
	if s.Gain(5) != 20 || s.Gain(1) != 20 {
		t.Error("gain inside the linear region should equal the slope")
	}
	if s.Output(10) != 100 || s.Output(-10) != -100 {
		t.Error("output should clip at ±100")
	}
}

func TestPhaseCrossovers(t *testing.T) {
	plant := lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1})
	ws := PhaseCrossovers(plant)
	if len(ws) != 1 {
		t.Fatalf("got %d crossovers, want 1", len(ws))
	}
	if math.Abs(ws[0]-math.Sqrt(3)) > 1e-6 {
		t.Errorf("crossover = %v, want √3", ws[0])
	}

	first := lti.MustTransferFunction([]float64{1}, []float64{1, 1})
	if got := PhaseCrossovers(first); len(got) != 0 {
		t.Errorf("first-order plant crossovers = %v", got)
	}
}

func TestPhaseCrossoversStaticPlant(t *testing.T) {
	for _, k := range []float64{2, -3} {
		if got := PhaseCrossovers(lti.MustTransferFunction([]float64{k}, []float64{1})); len(got) != 0 {
			t.Errorf("static gain %v: crossovers = %v", k, got)
		}
	}
}

func TestInvalidNonlinearity(t *testing.T) {
	plant := lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1})
	tests := []struct {
		name string
		nl   Nonlinearity
	}{
		{"zero gain", ClampedGain(0, 100)},
		{"negative gain", ClampedGain(-5, 100)},
		{"zero limit", ClampedGain(20, 0)},
		{"nan slope", Saturation{Slope: math.NaN(), Limit: 1}},
		{"relay without output", Relay{M: 0}},
		{"negative dead zone", DeadZone{Width: -1, Slope: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PredictLimitCycles(plant, tt.nl); !errors.Is(err, ErrInvalidNonlinearity) {
				t.Errorf("expected ErrInvalidNonlinearity, got %v", err)
			}
		})
	}
}

func TestPredictLimitCycleSaturation(t *testing.T) {
	plant := lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1})
	nl := ClampedGain(20, 100)

	cycles, err := PredictLimitCycles(plant, nl)
	if err != nil {
		t.Fatal(err)
	}
	lc := cycles[0]
	if math.Abs(lc.Omega-math.Sqrt(3)) > 1e-6 {
		t.Errorf("omega = %v, want √3", lc.Omega)
	}
	// -1/G(j√3) = 8
	if math.Abs(lc.Gain-8) > 1e-6 {
		t.Errorf("N(A) = %v, want 8", lc.Gain)
	}
	if lc.Amplitude < 15 || lc.Amplitude > 16.5 {
		t.Errorf("amplitude = %v, want about 15.6", lc.Amplitude)
	}
	if math.Abs(lc.Period()-2*math.Pi/math.Sqrt(3)) > 1e-5 {
		t.Errorf("period = %v", lc.Period())
	}
}

func TestPredictLimitCycleRelay(t *testing.T) {
	plant := lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1})
	cycles, err := PredictLimitCycles(plant, Relay{M: 1})
	if err != nil {
		t.Fatal(err)
	}
	// 4M/(πA) = 8
	want := 4 / (8 * math.Pi)
	if math.Abs(cycles[0].Amplitude-want) > 1e-6 {
		t.Errorf("amplitude = %v, want %v", cycles[0].Amplitude, want)
	}
}

func TestNoLimitCycle(t *testing.T) {
	tests := []struct {
		name  string
		plant *lti.TransferFunction
		nl    Nonlinearity
	}{
		{"gain below critical", lti.MustTransferFunction([]float64{1}, []float64{1, 3, 3, 1}), ClampedGain(5, 100)},
		{"no phase crossover", lti.MustTransferFunction([]float64{0.73}, []float64{1, 1}), ClampedGain(100, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PredictLimitCycles(tt.plant, tt.nl)
			if !errors.Is(err, ErrNoLimitCycle) {
				t.Errorf("err = %v, want ErrNoLimitCycle", err)
			}
		})
	}
}
