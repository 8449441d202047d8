package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
)

// EnergyDrift tracks the largest relative deviation of total energy from
// the first observed state.
type EnergyDrift struct {
	name          string
	kernel        physics.Kernel
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(k physics.Kernel) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		kernel: k,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s physics.State) {
	energy := e.kernel.Energies(s.Bodies).Total()

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift is the largest change of total linear momentum, relative to
// the total momentum magnitude sum(m|v|) at that sample.
type MomentumDrift struct {
	initial  physics.Vec2
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(s physics.State) {
	p := physics.Momentum(s.Bodies)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	scale := 0.0
	for _, b := range s.Bodies {
		scale += b.Mass * b.Velocity.Norm()
	}
	if scale == 0 {
		return
	}
	m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Norm()/scale)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() { *m = MomentumDrift{} }

type AngularMomentumDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift { return &AngularMomentumDrift{} }

func (a *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (a *AngularMomentumDrift) Observe(s physics.State) {
	L := physics.AngularMomentum(s.Bodies)
	if a.samples == 0 {
		a.initial = L
	}
	a.samples++
	if a.initial != 0 {
		a.maxDrift = math.Max(a.maxDrift, math.Abs(L-a.initial)/math.Abs(a.initial))
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() { *a = AngularMomentumDrift{} }

// MinSeparation is the closest approach of any pair seen so far. Values
// below the kernel softening mean the force floor was active.
type MinSeparation struct {
	min     float64
	samples int
}

func NewMinSeparation() *MinSeparation { return &MinSeparation{min: math.Inf(1)} }

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) Observe(s physics.State) {
	m.samples++
	for i := range s.Bodies {
		for j := i + 1; j < len(s.Bodies); j++ {
			d := s.Bodies[j].Position.Sub(s.Bodies[i].Position).Norm()
			m.min = math.Min(m.min, d)
		}
	}
}

// Value is 0 before any pair was observed.
func (m *MinSeparation) Value() float64 {
	if math.IsInf(m.min, 1) {
		return 0
	}
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}
