package physics

import "math"

const (
	// G is the gravitational constant in SI units.
	G = 6.6743e-11

	// DefaultSoftening is the minimum pair distance used in force and
	// potential evaluation.
	DefaultSoftening = 10.0
)

// Kernel advances a set of mutually attracting point masses with
// semi-implicit Euler. It holds no state; the zero value is not useful, use
// DefaultKernel or set both fields.
type Kernel struct {
	G         float64
	Softening float64
}

func DefaultKernel() Kernel {
	return Kernel{G: G, Softening: DefaultSoftening}
}

// Forces returns the net gravitational force on every body, evaluated from a
// single snapshot of positions. Pair distances below the softening floor are
// replaced by the floor before cubing.
func (k Kernel) Forces(bodies []Body) []Vec2 {
	n := len(bodies)
	f := make([]Vec2, n)

	for i := 0; i < n; i++ {
		pi, mi := bodies[i].Position, bodies[i].Mass

		for j := i + 1; j < n; j++ {
			d := bodies[j].Position.Sub(pi)
			r := math.Max(d.Norm(), k.Softening)
			fij := d.Scale(k.G * mi * bodies[j].Mass / (r * r * r))

			f[i] = f[i].Add(fij)
			f[j] = f[j].Sub(fij)
		}
	}

	return f
}

// Accelerations returns Forces divided by each body's mass.
func (k Kernel) Accelerations(bodies []Body) []Vec2 {
	a := k.Forces(bodies)
	for i := range a {
		a[i] = a[i].Scale(1 / bodies[i].Mass)
	}
	return a
}

// Advance performs one step of length dt. Velocity is updated from the force
// at the current positions, then position from the new velocity. The input
// is not modified and Elapsed is carried over unchanged; accumulating
// simulated time is the caller's job.
func (k Kernel) Advance(s State, dt float64) State {
	acc := k.Accelerations(s.Bodies)
	next := State{Bodies: make([]Body, len(s.Bodies)), Elapsed: s.Elapsed}

	for i, b := range s.Bodies {
		v := b.Velocity.Add(acc[i].Scale(dt))
		next.Bodies[i] = Body{
			Mass:     b.Mass,
			Position: b.Position.Add(v.Scale(dt)),
			Velocity: v,
		}
	}

	return next
}

// AdvanceN applies Advance n times.
func (k Kernel) AdvanceN(s State, dt float64, n int) State {
	for i := 0; i < n; i++ {
		s = k.Advance(s, dt)
	}
	return s
}

// Advance steps s with the default kernel.
func Advance(s State, dt float64) State {
	return DefaultKernel().Advance(s, dt)
}
