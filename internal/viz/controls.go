package viz

import (
	"math"
	"slices"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

// addOffset shifts an added body away from the one it was copied from.
const addOffset = 50.0

// Session is the consumer side of a running driver.
type Session interface {
	Send(sim.Instruction) error
	Frames() <-chan sim.Frame
	Done() <-chan struct{}
}

// Controls holds what a front end shows and decides what the driver is
// told. While running it mirrors the driver's frames; while paused it owns
// the state, which may then be edited.
type Controls struct {
	session Session

	state      physics.State
	colors     []string
	lastEdit   physics.State
	editColors []string
	edited     bool
	speed      float64
	paused     bool
	selected   int
	frames     int
}

func NewControls(s Session, state physics.State, colors []string, speed float64) *Controls {
	return &Controls{
		session:    s,
		state:      state.Clone(),
		colors:     slices.Clone(colors),
		lastEdit:   state.Clone(),
		editColors: slices.Clone(colors),
		speed:      config.ClampSpeed(speed),
	}
}

// Initial is the instruction that hands the starting state to the driver.
func (c *Controls) Initial() sim.Instruction {
	start := c.state.Clone()
	return sim.Configure(c.speed, &start)
}

// Receive applies a frame and reports whether the display changed. Frames
// are ignored while paused so that edits are not overwritten by frames
// already in flight.
func (c *Controls) Receive(f sim.Frame) bool {
	if c.paused || f.Stopped() {
		return false
	}
	c.state = *f.State
	c.frames++
	return true
}

// TogglePause stops the driver and keeps the last frame, or resumes from the
// displayed state including edits made meanwhile. restarted is true when an
// edit became the new reset point.
func (c *Controls) TogglePause() (restarted bool, err error) {
	if !c.paused {
		c.paused = true
		return false, c.session.Send(sim.Stop())
	}

	c.paused = false
	if c.edited {
		c.lastEdit = c.state.Clone()
		c.lastEdit.Elapsed = 0
		c.editColors = slices.Clone(c.colors)
		c.edited = false
		restarted = true
	}
	resume := c.state.Clone()
	return restarted, c.session.Send(sim.Configure(c.speed, &resume))
}

// Reset goes back to the state as of the last edit, or the initial state.
// A paused driver is not told until resume.
func (c *Controls) Reset() error {
	c.state = c.lastEdit.Clone()
	c.colors = slices.Clone(c.editColors)
	c.edited = false
	c.clampSelection()
	if c.paused {
		return nil
	}
	replacement := c.state.Clone()
	return c.session.Send(sim.Configure(c.speed, &replacement))
}

// AdjustSpeed applies while running; a paused driver picks the new speed up
// on resume.
func (c *Controls) AdjustSpeed(delta float64) error {
	c.speed = config.ClampSpeed(math.Round((c.speed+delta)*10) / 10)
	if c.paused {
		return nil
	}
	return c.session.Send(sim.Configure(c.speed, nil))
}

func (c *Controls) Select(dir int) {
	n := c.state.Len()
	if n == 0 {
		return
	}
	c.selected = (c.selected + dir + n) % n
}

func (c *Controls) clampSelection() {
	c.selected = min(c.selected, c.state.Len()-1)
	c.selected = max(c.selected, 0)
}

// AddBody copies the selected body, shifted so the two do not overlap. With
// no bodies left it places a preset mass at rest at the given point. Edits
// are only possible while paused.
func (c *Controls) AddBody(at physics.Vec2) bool {
	if !c.paused {
		return false
	}
	body := physics.NewBody(1e16, at, physics.Vec2{})
	if c.state.Len() > 0 {
		body = c.state.Bodies[c.selected]
		body.Position = body.Position.Add(physics.V(addOffset, addOffset))
	}

	c.state = c.state.Clone()
	c.state.Bodies = append(c.state.Bodies, body)
	c.colors = append(slices.Clone(c.colors), config.PaletteColor(len(c.colors)))
	c.selected = c.state.Len() - 1
	c.edited = true
	return true
}

func (c *Controls) RemoveBody() bool {
	if !c.paused || c.state.Len() == 0 {
		return false
	}
	c.state = c.state.Clone()
	c.state.Bodies = slices.Delete(c.state.Bodies, c.selected, c.selected+1)
	if c.selected < len(c.colors) {
		c.colors = slices.Delete(slices.Clone(c.colors), c.selected, c.selected+1)
	}
	c.clampSelection()
	c.edited = true
	return true
}

// State is the displayed state. Callers must not modify it.
func (c *Controls) State() physics.State { return c.state }

// Color returns the display color of body i.
func (c *Controls) Color(i int) string {
	if i < 0 || i >= len(c.colors) {
		return config.PaletteColor(max(i, 0))
	}
	return c.colors[i]
}

func (c *Controls) Paused() bool   { return c.paused }
func (c *Controls) Edited() bool   { return c.edited }
func (c *Controls) Speed() float64 { return c.speed }
func (c *Controls) Selected() int  { return c.selected }
func (c *Controls) Frames() int    { return c.frames }
