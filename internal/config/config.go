package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	DefaultPreset   = "triangle"
	DefaultSpeed    = 1.0
	DefaultTrail    = 5.0
	MaxSpeed        = 20.0
	SpeedIncrement  = 0.1
	DefaultDataDir  = ".orbitsim"
	DefaultLogLevel = "info"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Preset    string       `yaml:"preset,omitempty"`
	TargetFPS float64      `yaml:"target_fps"`
	Step      float64      `yaml:"step"`
	Gravity   float64      `yaml:"gravity"`
	Softening float64      `yaml:"softening"`
	Speed     float64      `yaml:"speed"`
	Trail     float64      `yaml:"trail_seconds"`
	Bodies    []BodyConfig `yaml:"bodies,omitempty"`
}

// BodyConfig is a body plus its display color. Colors live outside the
// physics state and are matched to bodies by index.
type BodyConfig struct {
	Mass  float64 `yaml:"mass"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	VX    float64 `yaml:"vx"`
	VY    float64 `yaml:"vy"`
	Color string  `yaml:"color,omitempty"`
}

func (b BodyConfig) Body() physics.Body {
	return physics.NewBody(b.Mass, physics.V(b.X, b.Y), physics.V(b.VX, b.VY))
}

func FromBody(b physics.Body, color string) BodyConfig {
	return BodyConfig{
		Mass:  b.Mass,
		X:     b.Position.X,
		Y:     b.Position.Y,
		VX:    b.Velocity.X,
		VY:    b.Velocity.Y,
		Color: color,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Preset:    DefaultPreset,
		TargetFPS: sim.DefaultTargetFPS,
		Step:      sim.DefaultStep,
		Gravity:   physics.G,
		Softening: physics.DefaultSoftening,
		Speed:     DefaultSpeed,
		Trail:     DefaultTrail,
	}
}

// Load reads a YAML file over the defaults. A file without bodies takes them
// from its preset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve fills Bodies from Preset when none are given, then validates.
func (c *Config) Resolve() error {
	if len(c.Bodies) == 0 && c.Preset != "" {
		bodies := GetPreset(c.Preset)
		if bodies == nil {
			return fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalid, c.Preset, ListPresets())
		}
		c.Bodies = bodies
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"target_fps", c.TargetFPS},
		{"step", c.Step},
		{"gravity", c.Gravity},
		{"softening", c.Softening},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalid, p.name, p.v)
		}
	}
	if c.Step < sim.MinStep {
		return fmt.Errorf("%w: step must be at least %g, got %g", ErrInvalid, sim.MinStep, c.Step)
	}
	if !(c.Speed >= 0) || c.Speed > MaxSpeed {
		return fmt.Errorf("%w: speed must be within [0, %g], got %g", ErrInvalid, MaxSpeed, c.Speed)
	}
	if c.Trail < 0 {
		return fmt.Errorf("%w: trail_seconds must not be negative, got %g", ErrInvalid, c.Trail)
	}
	if err := physics.Validate(c.InitialState()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) InitialState() physics.State {
	bodies := make([]physics.Body, len(c.Bodies))
	for i, b := range c.Bodies {
		bodies[i] = b.Body()
	}
	return physics.State{Bodies: bodies}
}

// Colors returns one color per body, filling blanks from the palette.
func (c *Config) Colors() []string {
	colors := make([]string, len(c.Bodies))
	for i, b := range c.Bodies {
		colors[i] = b.Color
		if colors[i] == "" {
			colors[i] = PaletteColor(i)
		}
	}
	return colors
}

func (c *Config) Driver() sim.Config {
	return sim.Config{TargetFPS: c.TargetFPS, Step: c.Step}
}

func (c *Config) Kernel() physics.Kernel {
	return physics.Kernel{G: c.Gravity, Softening: c.Softening}
}

func (c *Config) TrailDuration() time.Duration {
	return time.Duration(c.Trail * float64(time.Second))
}

// ClampSpeed bounds a user-entered speed to [0, MaxSpeed].
func ClampSpeed(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, MaxSpeed)
}
