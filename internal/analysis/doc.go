// Package analysis characterizes recorded or simulated trajectories.
//
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [PowerSpectrum]: magnitude spectrum of a sampled signal
//   - [DominantPeriod]: period of the strongest oscillation in a signal
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda := analysis.LyapunovExponent(k, s0, dt, duration, 1e-6)
//	if lambda > 0 {
//	    // nearby starts diverge exponentially
//	}
package analysis
