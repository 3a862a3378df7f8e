package lti

import (
	"gonum.org/v1/gonum/mat"
)

// StateSpace is the realization
//
//	x'(t) = A x(t) + B u(t)
//	y(t)  = C x(t) + D u(t)
//
// A is nil for static (order zero) plants.
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// Realize returns the controllable canonical realization of tf.
func Realize(tf *TransferFunction) *StateSpace {
	n := tf.Order()
	lead := tf.Den[0]

	// numerator padded to n+1 coefficients and normalised by the leading
	// denominator coefficient
	b := make([]float64, n+1)
	off := n + 1 - len(tf.Num)
	for i, v := range tf.Num {
		b[off+i] = v / lead
	}

	if n == 0 {
		return &StateSpace{D: b[0]}
	}

	d := b[0]
	c := make([]float64, n)
	for i := 1; i <= n; i++ {
		c[i-1] = b[i] - d*tf.Den[i]/lead
	}

	bv := mat.NewVecDense(n, nil)
	bv.SetVec(0, 1)

	return &StateSpace{
		A: companion(tf.Den),
		B: bv,
		C: mat.NewVecDense(n, c),
		D: d,
	}
}

// Order is the state dimension.
func (ss *StateSpace) Order() int {
	if ss.A == nil {
		return 0
	}
	r, _ := ss.A.Dims()
	return r
}

// Output evaluates y = C x + D u.
func (ss *StateSpace) Output(x *mat.VecDense, u float64) float64 {
	if ss.Order() == 0 {
		return ss.D * u
	}
	return mat.Dot(ss.C, x) + ss.D*u
}

// InitialState returns the minimum-norm state whose output equals y0 when
// the input is u0. The zero state is returned when C vanishes.
func (ss *StateSpace) InitialState(y0, u0 float64) *mat.VecDense {
	n := ss.Order()
	if n == 0 {
		return nil
	}
	x := mat.NewVecDense(n, nil)
	cc := mat.Dot(ss.C, ss.C)
	if cc == 0 {
		return x
	}
	x.ScaleVec((y0-ss.D*u0)/cc, ss.C)
	return x
}
