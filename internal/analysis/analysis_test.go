package analysis

import (
	"math"
	"strings"
	"testing"
)

func grid(stop float64, n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = stop * float64(i) / float64(n-1)
	}
	return t
}

func TestStepInfoFirstOrder(t *testing.T) {
	tt := grid(10, 10001)
	y := make([]float64, len(tt))
	for i, v := range tt {
		y[i] = 1 - math.Exp(-v)
	}

	info, err := StepInfo(tt, y, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(info.RiseTime-math.Log(9)) > 2e-3 {
		t.Errorf("rise time = %v, want %v", info.RiseTime, math.Log(9))
	}
	if math.Abs(info.SettlingTime+math.Log(0.02)) > 2e-3 {
		t.Errorf("settling time = %v, want %v", info.SettlingTime, -math.Log(0.02))
	}
	if info.Overshoot != 0 {
		t.Errorf("overshoot = %v, want 0", info.Overshoot)
	}
}

func TestStepInfoUnderdamped(t *testing.T) {
	const zeta = 0.5
	wd := math.Sqrt(1 - zeta*zeta)
	tt := grid(20, 20001)
	y := make([]float64, len(tt))
	for i, v := range tt {
		y[i] = 1 - math.Exp(-zeta*v)*(math.Cos(wd*v)+zeta/wd*math.Sin(wd*v))
	}

	info, err := StepInfo(tt, y, math.NaN())
	if err != nil {
		t.Fatal(err)
	}
	want := 100 * math.Exp(-math.Pi*zeta/wd)
	if math.Abs(info.Overshoot-want) > 0.1 {
		t.Errorf("overshoot = %v, want %v", info.Overshoot, want)
	}
	if math.Abs(info.PeakTime-math.Pi/wd) > 0.01 {
		t.Errorf("peak time = %v, want %v", info.PeakTime, math.Pi/wd)
	}
}

func TestStepInfoNegativeFinal(t *testing.T) {
	tt := grid(10, 1001)
	y := make([]float64, len(tt))
	for i, v := range tt {
		y[i] = -2 * (1 - math.Exp(-v))
	}
	info, err := StepInfo(tt, y, -2)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(info.RiseTime) || math.Abs(info.RiseTime-math.Log(9)) > 0.02 {
		t.Errorf("rise time = %v", info.RiseTime)
	}
}

func TestStepInfoErrors(t *testing.T) {
	if _, err := StepInfo([]float64{0, 1}, []float64{0}, 1); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := StepInfo([]float64{0}, []float64{0}, 1); err != ErrTooShort {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
	}{
		{"2Hz", 2},
		{"5Hz", 5},
		{"0.5Hz", 0.5},
	}

	const dt = 0.01
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, 1000)
			for i := range data {
				data[i] = 3 + math.Sin(2*math.Pi*tt.hz*float64(i)*dt)
			}
			hz, mag, err := DominantFrequency(data, dt)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(hz-tt.hz) > 1e-9 {
				t.Errorf("frequency = %v, want %v", hz, tt.hz)
			}
			if mag <= 0 {
				t.Errorf("magnitude = %v", mag)
			}
		})
	}

	if _, _, err := DominantFrequency([]float64{1, 2}, dt); err != ErrTooShort {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5, 5, 5, 5, 5})
	for k, v := range ps {
		if v > 1e-12 {
			t.Errorf("ps[%d] = %v, want 0", k, v)
		}
	}
	if PowerSpectrum(nil) != nil {
		t.Error("empty input should give nil")
	}
}

func TestPhasePortrait(t *testing.T) {
	tt := grid(2*math.Pi, 2001)
	ref := make([]float64, len(tt))
	resp := make([]float64, len(tt))
	for i, v := range tt {
		resp[i] = -math.Sin(v)
	}

	p := NewPhasePortrait(tt, ref, resp)
	if p == nil {
		t.Fatal("nil portrait")
	}
	if len(p.E) != len(tt)-2 || len(p.EDot) != len(tt)-2 {
		t.Fatalf("lengths %d/%d", len(p.E), len(p.EDot))
	}
	for i := range p.EDot {
		if want := math.Cos(tt[i+1]); math.Abs(p.EDot[i]-want) > 1e-4 {
			t.Fatalf("edot[%d] = %v, want %v", i, p.EDot[i], want)
		}
	}

	art := p.ASCII(40, 12)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("got %d rows, want 12", len(lines))
	}
	if !strings.ContainsRune(art, '•') {
		t.Error("no points plotted")
	}

	if NewPhasePortrait(tt[:2], ref[:2], resp[:2]) != nil {
		t.Error("expected nil for short input")
	}
}
