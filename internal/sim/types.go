package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
)

const (
	DefaultTargetFPS = 50.0
	DefaultStep      = 0.0001

	// MinSleep is the pause used when a tick overruns its interval, so the
	// loop still yields.
	MinSleep = time.Nanosecond

	// MinStep is the resolution of simulated time, which is kept in whole
	// nanoseconds.
	MinStep = 1e-9

	// MaxStepsPerTick bounds the work of one tick however large the speed.
	MaxStepsPerTick = math.MaxInt32
)

// Config holds the rates shared between the driver and its consumers. They
// are fixed for the lifetime of a driver; only the speed multiplier changes
// at runtime.
type Config struct {
	TargetFPS float64
	Step      float64
}

func DefaultConfig() Config {
	return Config{
		TargetFPS: DefaultTargetFPS,
		Step:      DefaultStep,
	}
}

func (c Config) Validate() error {
	if !(c.TargetFPS > 0) || math.IsInf(c.TargetFPS, 0) {
		return fmt.Errorf("%w: target fps must be positive, got %f", ErrInvalidConfig, c.TargetFPS)
	}
	if !(c.Step >= MinStep) || math.IsInf(c.Step, 0) {
		return fmt.Errorf("%w: step must be at least %g s, got %g", ErrInvalidConfig, MinStep, c.Step)
	}
	return nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TargetFPS)
}

// StepsPerTick is floor((tick interval / step) * speed), capped at
// MaxStepsPerTick.
func (c Config) StepsPerTick(speed float64) int {
	n := math.Floor((1 / c.TargetFPS) / c.Step * speed)
	if !(n > 0) {
		return 0
	}
	return int(min(n, MaxStepsPerTick))
}

// Simulated returns the simulated time covered by n steps, rounded to the
// nanosecond.
func (c Config) Simulated(n int) time.Duration {
	return time.Duration(math.Round(float64(n) * c.Step * float64(time.Second)))
}

// Instruction is a message to the driver: either Stop, or Configure with a
// speed and an optional replacement state. The zero value is Configure with
// speed 0 and no state.
type Instruction struct {
	stop        bool
	speed       float64
	replacement *physics.State
}

// Stop pauses the driver. It keeps listening for instructions.
func Stop() Instruction {
	return Instruction{stop: true}
}

// Configure sets the speed multiplier and, when replacement is non-nil,
// overwrites the driver's state with a copy of it. Negative and non-finite
// speeds are clamped to zero.
func Configure(speed float64, replacement *physics.State) Instruction {
	if !(speed > 0) || math.IsInf(speed, 1) {
		speed = 0
	}
	ins := Instruction{speed: speed}
	if replacement != nil {
		c := replacement.Clone()
		ins.replacement = &c
	}
	return ins
}

func (i Instruction) IsStop() bool { return i.stop }

func (i Instruction) Speed() float64 { return i.speed }

// Replacement returns a copy of the replacement state, if any.
func (i Instruction) Replacement() (physics.State, bool) {
	if i.replacement == nil {
		return physics.State{}, false
	}
	return i.replacement.Clone(), true
}

func (i Instruction) String() string {
	switch {
	case i.stop:
		return "stop"
	case i.replacement != nil:
		return fmt.Sprintf("configure(speed=%g, bodies=%d)", i.speed, i.replacement.Len())
	default:
		return fmt.Sprintf("configure(speed=%g)", i.speed)
	}
}

// Frame is one emission of the driver. A nil State means the driver is
// stopped and has nothing to show.
type Frame struct {
	State *physics.State
}

func (f Frame) Stopped() bool { return f.State == nil }

// Stats are cumulative counters of a driver.
type Stats struct {
	Ticks      uint64
	Frames     uint64
	Steps      uint64
	LastTick   time.Duration
	Overruns   uint64
	Running    bool
	Terminated bool
}
