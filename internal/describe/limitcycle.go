package describe

import (
	"errors"
	"math"

	"github.com/san-kum/loopsim/internal/lti"
)

var ErrNoLimitCycle = errors.New("describe: no limit cycle predicted")

// LimitCycle is a harmonic-balance solution.
type LimitCycle struct {
	Omega     float64 `json:"omega"`     // rad/s
	Amplitude float64 `json:"amplitude"` // at the nonlinearity input
	Gain      float64 `json:"gain"`      // N(Amplitude)
}

// Period in seconds.
func (lc LimitCycle) Period() float64 { return 2 * math.Pi / lc.Omega }

// Hz is the oscillation frequency in hertz.
func (lc LimitCycle) Hz() float64 { return lc.Omega / (2 * math.Pi) }

// Search bounds. Frequencies are scanned on a log grid and refined by
// bisection.
const (
	minOmega    = 1e-3
	maxOmega    = 1e3
	scanPoints  = 4000
	minAmp      = 1e-9
	maxAmp      = 1e9
	bisectSteps = 200
)

// PhaseCrossovers returns the frequencies where G(jω) crosses the negative
// real axis, in increasing order. A response that is real over a whole scan
// interval (a static plant) has no crossover.
func PhaseCrossovers(plant *lti.TransferFunction) []float64 {
	var out []float64
	im := func(w float64) float64 { return imag(plant.FrequencyResponse(w)) }
	ratio := math.Pow(maxOmega/minOmega, 1/float64(scanPoints-1))
	prevW := minOmega
	prevIm := im(prevW)
	for i := 1; i < scanPoints; i++ {
		w := prevW * ratio
		cur := im(w)
		var wc float64
		switch {
		case cur == 0 && prevIm != 0:
			wc = w
		case cur != 0 && prevIm != 0 && math.Signbit(prevIm) != math.Signbit(cur):
			wc = bisect(im, prevW, w)
		default:
			prevW, prevIm = w, cur
			continue
		}
		if real(plant.FrequencyResponse(wc)) < 0 && (len(out) == 0 || wc-out[len(out)-1] > 1e-9*wc) {
			out = append(out, wc)
		}
		prevW, prevIm = w, cur
	}
	return out
}

// PredictLimitCycles solves 1 + N(A) G(jω) = 0 for every phase crossover of
// the plant. The error is ErrNoLimitCycle when none has a solution and
// ErrInvalidNonlinearity when nl fails validation.
func PredictLimitCycles(plant *lti.TransferFunction, nl Nonlinearity) ([]LimitCycle, error) {
	if err := nl.Validate(); err != nil {
		return nil, err
	}
	var cycles []LimitCycle
	for _, w := range PhaseCrossovers(plant) {
		target := -1 / real(plant.FrequencyResponse(w))
		a, ok := solveAmplitude(nl, target)
		if !ok {
			continue
		}
		cycles = append(cycles, LimitCycle{Omega: w, Amplitude: a, Gain: nl.Gain(a)})
	}
	if len(cycles) == 0 {
		return nil, ErrNoLimitCycle
	}
	return cycles, nil
}

// solveAmplitude finds A with N(A) = target, bisecting in log(A). N must be
// monotone over the search range.
func solveAmplitude(nl Nonlinearity, target float64) (float64, bool) {
	f := func(logA float64) float64 { return nl.Gain(math.Exp(logA)) - target }
	lo, hi := math.Log(minAmp), math.Log(maxAmp)
	if math.Signbit(f(lo)) == math.Signbit(f(hi)) {
		return 0, false
	}
	return math.Exp(bisect(f, lo, hi)), true
}

func bisect(f func(float64) float64, lo, hi float64) float64 {
	flo := f(lo)
	for i := 0; i < bisectSteps && hi-lo > 1e-15*math.Max(1, math.Abs(lo)); i++ {
		mid := 0.5 * (lo + hi)
		fm := f(mid)
		if fm == 0 {
			return mid
		}
		if math.Signbit(fm) == math.Signbit(flo) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
