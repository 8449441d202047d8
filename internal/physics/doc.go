// Package physics implements the gravitational n-body kernel.
//
// The kernel maps one [State] and a fixed step to the next state using
// semi-implicit Euler:
//
//	v' = v + a(p) * dt
//	p' = p + v' * dt
//
// All bodies are updated from a single snapshot of the input. Pair distances
// are floored at [Kernel.Softening] before cubing, so coincident bodies never
// produce NaN or Inf.
//
// [Kernel.PotentialEnergy], [KineticEnergy] and [Kernel.Energies] use the
// same softening convention and are meant for diagnostics:
//
//	k := physics.DefaultKernel()
//	next := k.Advance(s, 1e-4)
//	drift := k.Energies(next.Bodies).Total() - k.Energies(s.Bodies).Total()
package physics
