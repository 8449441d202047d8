package physics

import "time"

// Body is a point mass. Bodies have no id; they are referenced by their
// index within State.Bodies.
type Body struct {
	Mass     float64 `json:"mass"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
}

func NewBody(mass float64, position, velocity Vec2) Body {
	return Body{Mass: mass, Position: position, Velocity: velocity}
}

// State is an ordered set of bodies plus the simulated time covered so far.
// Order is significant: it is the index space for force pairing and for any
// display metadata kept by consumers.
type State struct {
	Bodies  []Body        `json:"bodies"`
	Elapsed time.Duration `json:"elapsed"`
}

func NewState(bodies ...Body) State {
	b := make([]Body, len(bodies))
	copy(b, bodies)
	return State{Bodies: b}
}

// Clone returns a deep copy. States cross goroutine boundaries only as clones.
func (s State) Clone() State {
	b := make([]Body, len(s.Bodies))
	copy(b, s.Bodies)
	return State{Bodies: b, Elapsed: s.Elapsed}
}

func (s State) Len() int { return len(s.Bodies) }

// IsValid reports whether every body has finite components.
func (s State) IsValid() bool {
	for _, b := range s.Bodies {
		if !b.Position.IsValid() || !b.Velocity.IsValid() {
			return false
		}
	}
	return true
}
