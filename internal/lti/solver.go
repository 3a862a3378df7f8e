package lti

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// stepTolerance is the relative difference under which two step sizes
// share one discretization. Grids built with Linspace differ from their
// nominal step only by rounding.
const stepTolerance = 1e-9

// Solver computes forced responses of one realization, caching the
// discretization per step size. A Solver is not safe for concurrent use.
type Solver struct {
	sys   *StateSpace
	hold  Hold
	cache []*Discrete
}

func NewSolver(sys *StateSpace, hold Hold) *Solver {
	return &Solver{sys: sys, hold: hold}
}

func (s *Solver) System() *StateSpace { return s.sys }
func (s *Solver) Hold() Hold          { return s.hold }

// Discretization returns the cached sampled model for dt, computing it on
// first use.
func (s *Solver) Discretization(dt float64) (*Discrete, error) {
	for _, d := range s.cache {
		if math.Abs(d.Dt-dt) <= stepTolerance*d.Dt {
			return d, nil
		}
	}
	d, err := Discretize(s.sys, dt, s.hold)
	if err != nil {
		return nil, err
	}
	s.cache = append(s.cache, d)
	return d, nil
}

// ForcedResponse returns y over t driven by u, starting from x0 (nil means
// the zero state). t must be strictly increasing.
func (s *Solver) ForcedResponse(t, u []float64, x0 *mat.VecDense) ([]float64, error) {
	if len(t) != len(u) {
		return nil, fmt.Errorf("%w: %d times, %d inputs", ErrDimensionMismatch, len(t), len(u))
	}
	y := make([]float64, len(t))
	if len(t) == 0 {
		return y, nil
	}

	n := s.sys.Order()
	var x *mat.VecDense
	if n > 0 {
		x = mat.NewVecDense(n, nil)
		if x0 != nil {
			x.CopyVec(x0)
		}
	}

	y[0] = s.sys.Output(x, u[0])
	for k := 1; k < len(t); k++ {
		dt := t[k] - t[k-1]
		if !(dt > 0) {
			return nil, fmt.Errorf("%w: t[%d]=%g, t[%d]=%g", ErrNonMonotonicTime, k-1, t[k-1], k, t[k])
		}
		d, err := s.Discretization(dt)
		if err != nil {
			return nil, err
		}
		d.Advance(x, u[k-1], u[k])
		y[k] = s.sys.Output(x, u[k])
	}
	return y, nil
}

// ForcedResponse realizes tf and returns its zero-state response to u.
func ForcedResponse(tf *TransferFunction, t, u []float64, hold Hold) ([]float64, error) {
	return NewSolver(Realize(tf), hold).ForcedResponse(t, u, nil)
}
