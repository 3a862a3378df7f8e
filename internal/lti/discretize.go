package lti

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hold selects how the input is reconstructed between samples.
type Hold int

const (
	// FOH interpolates the input linearly between samples.
	FOH Hold = iota
	// ZOH holds each input sample constant until the next one.
	ZOH
)

func (h Hold) String() string {
	switch h {
	case FOH:
		return "foh"
	case ZOH:
		return "zoh"
	default:
		return fmt.Sprintf("hold(%d)", int(h))
	}
}

// ParseHold accepts "foh" or "zoh".
func ParseHold(s string) (Hold, error) {
	switch s {
	case "foh", "":
		return FOH, nil
	case "zoh":
		return ZOH, nil
	default:
		return FOH, fmt.Errorf("lti: unknown hold %q", s)
	}
}

// Discrete is the sampled-data model for one step size:
//
//	x[k+1] = Ad x[k] + B0 u[k] + B1 u[k+1]
//
// B1 is zero for ZOH.
type Discrete struct {
	Dt   float64
	Hold Hold
	Ad   *mat.Dense
	B0   *mat.VecDense
	B1   *mat.VecDense

	scratch *mat.VecDense
}

// Discretize samples ss with step dt. The blocks come from the exponential
// of the augmented matrix
//
//	      | A  B  0 |
//	exp ( | 0  0  1 | dt )
//	      | 0  0  0 |
//
// whose (1,2) block is ∫e^{Aτ}dτ B and (1,3) block is ∫e^{A(dt-τ)} B τ dτ.
func Discretize(ss *StateSpace, dt float64, hold Hold) (*Discrete, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidStep, dt)
	}
	n := ss.Order()
	if n == 0 {
		return &Discrete{Dt: dt, Hold: hold}, nil
	}

	size := n + 1
	if hold == FOH {
		size = n + 2
	}
	m := mat.NewDense(size, size, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, ss.A.At(i, j)*dt)
		}
		m.Set(i, n, ss.B.AtVec(i)*dt)
	}
	if hold == FOH {
		m.Set(n, n+1, dt)
	}

	var e mat.Dense
	e.Exp(m)

	ad := mat.NewDense(n, n, nil)
	ad.Copy(e.Slice(0, n, 0, n))

	g1 := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		g1.SetVec(i, e.At(i, n))
	}

	d := &Discrete{
		Dt:      dt,
		Hold:    hold,
		Ad:      ad,
		B0:      g1,
		B1:      mat.NewVecDense(n, nil),
		scratch: mat.NewVecDense(n, nil),
	}
	if hold == FOH {
		for i := 0; i < n; i++ {
			b1 := e.At(i, n+1) / dt
			d.B1.SetVec(i, b1)
			d.B0.SetVec(i, g1.AtVec(i)-b1)
		}
	}
	return d, nil
}

// Advance moves x one step forward in place given the input at the start
// (u0) and end (u1) of the interval.
func (d *Discrete) Advance(x *mat.VecDense, u0, u1 float64) {
	if d.Ad == nil {
		return
	}
	d.scratch.MulVec(d.Ad, x)
	d.scratch.AddScaledVec(d.scratch, u0, d.B0)
	if d.Hold == FOH {
		d.scratch.AddScaledVec(d.scratch, u1, d.B1)
	}
	x.CopyVec(d.scratch)
}
