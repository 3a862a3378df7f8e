// Package lti models continuous-time single-input single-output linear
// time-invariant plants.
//
// A plant starts life as a rational [TransferFunction] and is turned into a
// controllable canonical [StateSpace] realization for simulation:
//
//   - [NewTransferFunction]: validated numerator/denominator pair
//   - [Realize]: state-space matrices (A, B, C, D)
//   - [Discretize]: exact sampled-data model for a given step and [Hold]
//   - [Solver]: forced response over an arbitrary time grid
//
// # Example
//
//	tf, _ := lti.NewTransferFunction([]float64{0.73}, []float64{1, 1})
//	y, _ := lti.ForcedResponse(tf, t, u, lti.FOH)
//
// Discretization uses the matrix exponential of an augmented block matrix,
// so responses are exact for piecewise-constant (ZOH) or piecewise-linear
// (FOH) inputs regardless of step size.
package lti
