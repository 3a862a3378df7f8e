// Package analysis characterizes simulated closed-loop responses.
//
//   - [StepInfo]: rise time, settling time, overshoot and peak
//   - [PowerSpectrum], [DominantFrequency]: spectral content of a response,
//     used to measure limit-cycle oscillations
//   - [NewPhasePortrait]: error / error-rate trajectory for phase-plane plots
//
// # Limit cycles
//
// A saturated loop around a plant that is unstable under the linear gain
// settles into a sustained oscillation. Its frequency can be compared with
// the describing-function prediction:
//
//	f, _ := analysis.DominantFrequency(res.Response[settle:], dt)
package analysis
