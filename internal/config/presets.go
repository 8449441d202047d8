package config

import (
	"math"
	"sort"

	"github.com/san-kum/orbitsim/internal/physics"
)

const presetMass = 1e16

var palette = []string{"#ffffff", "#00ffff", "#ff00ff", "#ffcc00", "#00ff88", "#ff4444", "#8888ff"}

func PaletteColor(i int) string {
	return palette[i%len(palette)]
}

var Presets = map[string]func() []BodyConfig{
	// three bodies at rest, the classic starting point
	"triangle": func() []BodyConfig {
		return []BodyConfig{
			{Mass: presetMass, X: 0, Y: 0},
			{Mass: presetMass, X: 100, Y: -100},
			{Mass: presetMass, X: -200, Y: -100},
		}
	},
	"pair": func() []BodyConfig {
		return []BodyConfig{
			{Mass: presetMass, X: 0, Y: 0},
			{Mass: presetMass, X: 100, Y: 0},
		}
	},
	"binary": func() []BodyConfig {
		const d = 200.0
		v := math.Sqrt(physics.G * presetMass / (2 * d))
		return []BodyConfig{
			{Mass: presetMass, X: -d / 2, VY: -v},
			{Mass: presetMass, X: d / 2, VY: v},
		}
	},
	// equilateral triple rotating rigidly about its center
	"lagrange": func() []BodyConfig {
		const r = 150.0
		omega := math.Sqrt(physics.G * presetMass / (math.Sqrt(3) * r * r * r))
		bodies := make([]BodyConfig, 3)
		for i := range bodies {
			a := float64(i) * 2 * math.Pi / 3
			bodies[i] = BodyConfig{
				Mass: presetMass,
				X:    r * math.Cos(a),
				Y:    r * math.Sin(a),
				VX:   -omega * r * math.Sin(a),
				VY:   omega * r * math.Cos(a),
			}
		}
		return bodies
	},
}

// GetPreset returns a fresh copy of the named preset's bodies, or nil.
func GetPreset(name string) []BodyConfig {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	bodies := fn()
	for i := range bodies {
		bodies[i].Color = PaletteColor(i)
	}
	return bodies
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
