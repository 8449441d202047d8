package analysis

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
)

// renormalizeEvery is the number of steps between separation checks.
const renormalizeEvery = 100

// LyapunovExponent estimates the largest Lyapunov exponent, in 1/s, by
// following s0 and a copy with body 0 moved by perturbation along x. The
// separation over positions and velocities is measured and scaled back to
// its starting size every renormalizeEvery steps; the exponent is the mean
// log growth per unit time.
func LyapunovExponent(k physics.Kernel, s0 physics.State, dt, duration, perturbation float64) float64 {
	if s0.Len() == 0 || !(dt > 0) || !(perturbation > 0) {
		return 0
	}

	x := s0.Clone()
	xp := s0.Clone()
	xp.Bodies[0].Position.X += perturbation
	d0 := perturbation

	steps := int(duration / dt)
	sumLog := 0.0
	t := 0.0

	for done := 0; done < steps; {
		n := min(renormalizeEvery, steps-done)
		x = k.AdvanceN(x, dt, n)
		xp = k.AdvanceN(xp, dt, n)
		done += n
		t += float64(n) * dt

		sep := separation(x, xp)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			break
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for i := range xp.Bodies {
			a, b := x.Bodies[i], &xp.Bodies[i]
			b.Position = a.Position.Add(b.Position.Sub(a.Position).Scale(scale))
			b.Velocity = a.Velocity.Add(b.Velocity.Sub(a.Velocity).Scale(scale))
		}
	}

	if t == 0 {
		return 0
	}
	return sumLog / t
}

func separation(a, b physics.State) float64 {
	sum := 0.0
	for i := range a.Bodies {
		sum += b.Bodies[i].Position.Sub(a.Bodies[i].Position).Norm2()
		sum += b.Bodies[i].Velocity.Sub(a.Bodies[i].Velocity).Norm2()
	}
	return math.Sqrt(sum)
}
