package lti

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TransferFunction is num(s)/den(s) with coefficients ordered from the
// highest power of s down to the constant term.
type TransferFunction struct {
	Num []float64
	Den []float64
}

// NewTransferFunction strips leading zeros and rejects plants that are not
// proper.
func NewTransferFunction(num, den []float64) (*TransferFunction, error) {
	d := trimLeadingZeros(den)
	if len(d) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlant, ErrZeroDenominator)
	}
	n := trimLeadingZeros(num)
	if len(n) == 0 {
		n = []float64{0}
	}
	if len(n) > len(d) {
		return nil, fmt.Errorf("%w: %w: numerator order %d > denominator order %d",
			ErrInvalidPlant, ErrImproperPlant, len(n)-1, len(d)-1)
	}
	for _, c := range append(append([]float64{}, n...), d...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrInvalidPlant)
		}
	}
	return &TransferFunction{Num: n, Den: d}, nil
}

// MustTransferFunction panics on invalid input. Meant for package-level
// presets and tests.
func MustTransferFunction(num, den []float64) *TransferFunction {
	tf, err := NewTransferFunction(num, den)
	if err != nil {
		panic(err)
	}
	return tf
}

func trimLeadingZeros(c []float64) []float64 {
	i := 0
	for i < len(c) && c[i] == 0 {
		i++
	}
	out := make([]float64, len(c)-i)
	copy(out, c[i:])
	return out
}

// Order is the denominator degree.
func (tf *TransferFunction) Order() int {
	return len(tf.Den) - 1
}

// StrictlyProper reports whether the numerator degree is below the
// denominator degree (no direct feedthrough).
func (tf *TransferFunction) StrictlyProper() bool {
	return len(tf.Num) < len(tf.Den) || (len(tf.Num) == 1 && tf.Num[0] == 0)
}

// StaticGain is G(0).
func (tf *TransferFunction) StaticGain() (float64, error) {
	d0 := tf.Den[len(tf.Den)-1]
	if d0 == 0 {
		return 0, ErrNoStaticGain
	}
	return tf.Num[len(tf.Num)-1] / d0, nil
}

// Evaluate returns G(s).
func (tf *TransferFunction) Evaluate(s complex128) complex128 {
	return horner(tf.Num, s) / horner(tf.Den, s)
}

// FrequencyResponse returns G(jω).
func (tf *TransferFunction) FrequencyResponse(w float64) complex128 {
	return tf.Evaluate(complex(0, w))
}

// Bode returns |G(jω)| and arg G(jω) in radians, in (-π, π].
func (tf *TransferFunction) Bode(w float64) (mag, phase float64) {
	g := tf.FrequencyResponse(w)
	return cmplx.Abs(g), cmplx.Phase(g)
}

func horner(c []float64, s complex128) complex128 {
	var acc complex128
	for _, v := range c {
		acc = acc*s + complex(v, 0)
	}
	return acc
}

// Poles are the roots of the denominator, computed as eigenvalues of the
// companion matrix.
func (tf *TransferFunction) Poles() []complex128 {
	n := tf.Order()
	if n == 0 {
		return nil
	}
	a := companion(tf.Den)
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

// IsStable reports whether every pole lies strictly in the left half plane.
func (tf *TransferFunction) IsStable() bool {
	for _, p := range tf.Poles() {
		if real(p) >= 0 {
			return false
		}
	}
	return true
}

// Scale returns k*G(s).
func (tf *TransferFunction) Scale(k float64) *TransferFunction {
	num := make([]float64, len(tf.Num))
	for i, v := range tf.Num {
		num[i] = k * v
	}
	den := make([]float64, len(tf.Den))
	copy(den, tf.Den)
	if k == 0 {
		num = []float64{0}
	}
	return &TransferFunction{Num: num, Den: den}
}

func (tf *TransferFunction) String() string {
	return polyString(tf.Num) + " / " + polyString(tf.Den)
}

func polyString(c []float64) string {
	terms := make([]string, 0, len(c))
	deg := len(c) - 1
	for i, v := range c {
		p := deg - i
		if v == 0 && len(c) > 1 {
			continue
		}
		coef := strconv.FormatFloat(v, 'g', 6, 64)
		switch p {
		case 0:
			terms = append(terms, coef)
		case 1:
			terms = append(terms, coef+"s")
		default:
			terms = append(terms, coef+"s^"+strconv.Itoa(p))
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return "(" + strings.Join(terms, " + ") + ")"
}

// companion builds the controllable canonical A matrix for a denominator.
func companion(den []float64) *mat.Dense {
	n := len(den) - 1
	a := mat.NewDense(n, n, nil)
	lead := den[0]
	for j := 0; j < n; j++ {
		a.Set(0, j, -den[j+1]/lead)
	}
	for i := 1; i < n; i++ {
		a.Set(i, i-1, 1)
	}
	return a
}
