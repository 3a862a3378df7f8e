// Package loop simulates a SISO plant under unity-feedback proportional
// control with actuator saturation and an additive input disturbance.
//
// For every sample i >= 1 the control law is
//
//	u[i] = clamp(K*(r[i] - y[i-1]) + ff[i], lower, upper)
//
// and the plant is driven by kd*d[i] + u[i]. Feed-forward alone (K = 0),
// feedback alone (ff = 0) and their combination (two degrees of freedom)
// are all the same loop with different parameters.
//
// # Methods
//
//   - [Recurrence]: explicit state advanced one sample at a time with a
//     cached exact discretization (O(N))
//   - [Prefix]: re-solves the forced response over the elapsed prefix at
//     every sample (O(N²)); kept as a reference for the recurrence
//
// # Example
//
//	sim, _ := loop.New(plant)
//	cfg := loop.DefaultConfig()
//	cfg.Gain = 10
//	res, _ := sim.Run(ctx, loop.Input{Grid: t, Reference: r, Disturbance: d}, cfg)
//
// Runs never fail because the loop is unstable: diverging responses are
// returned and flagged in [Result.Diverged].
package loop
