package metrics

import (
	"sort"

	"github.com/san-kum/orbitsim/internal/physics"
)

// Metric accumulates a scalar over a sequence of emitted states.
type Metric interface {
	Name() string
	Observe(s physics.State)
	Value() float64
	Reset()
}

// Set observes every state with each of its metrics.
type Set []Metric

// Defaults returns the metrics recorded for every run.
func Defaults(k physics.Kernel) Set {
	return Set{
		NewEnergyDrift(k),
		NewMomentumDrift(),
		NewAngularMomentumDrift(),
		NewMinSeparation(),
	}
}

func (s Set) Observe(st physics.State) {
	for _, m := range s {
		m.Observe(st)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns metric names in a stable order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, m := range s {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}
