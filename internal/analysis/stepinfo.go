package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// StepCharacteristics summarizes a step-like response.
type StepCharacteristics struct {
	RiseTime     float64 `json:"rise_time"`     // 10% to 90% of final
	SettlingTime float64 `json:"settling_time"` // last exit from the 2% band
	Overshoot    float64 `json:"overshoot"`     // percent above final
	Peak         float64 `json:"peak"`
	PeakTime     float64 `json:"peak_time"`
	Final        float64 `json:"final"`
}

const settlingBand = 0.02

// StepInfo measures y against final. Pass math.NaN() as final to use the
// last sample. Rise and settling times are NaN when never reached.
func StepInfo(t, y []float64, final float64) (StepCharacteristics, error) {
	if len(t) != len(y) {
		return StepCharacteristics{}, fmt.Errorf("analysis: %d times, %d samples", len(t), len(y))
	}
	if len(y) < 2 {
		return StepCharacteristics{}, ErrTooShort
	}
	if math.IsNaN(final) {
		final = y[len(y)-1]
	}

	sign := 1.0
	if final < 0 {
		sign = -1
	}
	// work on the response flipped so the final value is non-negative
	z := make([]float64, len(y))
	floats.ScaleTo(z, sign, y)
	fz := sign * final

	info := StepCharacteristics{Final: final, RiseTime: math.NaN(), SettlingTime: math.NaN()}

	pk := floats.MaxIdx(z)
	info.Peak = y[pk]
	info.PeakTime = t[pk]
	if fz > 0 && z[pk] > fz {
		info.Overshoot = 100 * (z[pk] - fz) / fz
	}

	lo, hi := -1, -1
	for i, v := range z {
		if lo < 0 && v >= 0.1*fz {
			lo = i
		}
		if hi < 0 && v >= 0.9*fz {
			hi = i
			break
		}
	}
	if lo >= 0 && hi >= 0 {
		info.RiseTime = t[hi] - t[lo]
	}

	band := settlingBand * math.Abs(fz)
	last := -1
	for i := len(z) - 1; i >= 0; i-- {
		if math.Abs(z[i]-fz) > band {
			last = i
			break
		}
	}
	switch {
	case last < 0:
		info.SettlingTime = t[0]
	case last < len(z)-1:
		info.SettlingTime = t[last+1]
	}
	return info, nil
}
