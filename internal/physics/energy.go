package physics

import "math"

// PotentialEnergy of the pair (a, b). The distance floor is applied to the
// distance itself, matching Forces.
func (k Kernel) PotentialEnergy(a, b Body) float64 {
	r := math.Max(b.Position.Sub(a.Position).Norm(), k.Softening)
	return -k.G * a.Mass * b.Mass / r
}

func KineticEnergy(b Body) float64 {
	return 0.5 * b.Mass * b.Velocity.Norm2()
}

// BodyPotential is the potential of body i against every other body.
func (k Kernel) BodyPotential(bodies []Body, i int) float64 {
	pe := 0.0
	for j := range bodies {
		if j != i {
			pe += k.PotentialEnergy(bodies[i], bodies[j])
		}
	}
	return pe
}

type Energy struct {
	Potential float64 `json:"potential"`
	Kinetic   float64 `json:"kinetic"`
}

func (e Energy) Total() float64 { return e.Potential + e.Kinetic }

// Energies sums kinetic energy over bodies and potential energy over
// unordered pairs, so Total is the conserved quantity of the system.
func (k Kernel) Energies(bodies []Body) Energy {
	var e Energy
	for i := range bodies {
		e.Kinetic += KineticEnergy(bodies[i])
		for j := i + 1; j < len(bodies); j++ {
			e.Potential += k.PotentialEnergy(bodies[i], bodies[j])
		}
	}
	return e
}

// EnergyRow is one line of a per-body energy table.
type EnergyRow struct {
	Index     int
	Potential float64
	Kinetic   float64
}

// EnergyTable returns per-body potential (against all others) and kinetic
// energy. Summing the Potential column counts every pair twice.
func (k Kernel) EnergyTable(bodies []Body) []EnergyRow {
	rows := make([]EnergyRow, len(bodies))
	for i, b := range bodies {
		rows[i] = EnergyRow{
			Index:     i,
			Potential: k.BodyPotential(bodies, i),
			Kinetic:   KineticEnergy(b),
		}
	}
	return rows
}

func Momentum(bodies []Body) Vec2 {
	var p Vec2
	for _, b := range bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// AngularMomentum about the origin.
func AngularMomentum(bodies []Body) float64 {
	L := 0.0
	for _, b := range bodies {
		L += b.Mass * b.Position.Cross(b.Velocity)
	}
	return L
}

// CenterOfMass returns the mass-weighted mean position; zero for no bodies.
func CenterOfMass(bodies []Body) Vec2 {
	var c Vec2
	m := 0.0
	for _, b := range bodies {
		c = c.Add(b.Position.Scale(b.Mass))
		m += b.Mass
	}
	if m == 0 {
		return Vec2{}
	}
	return c.Scale(1 / m)
}
