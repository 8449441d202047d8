package viz

import (
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
)

// MinTrailStep is how far some body has to move, in meters, before another
// trail point is kept.
const MinTrailStep = 5.0

type trailPoint struct {
	at        time.Duration
	positions []physics.Vec2
}

// Trail keeps recent body positions for a bounded span of simulated time.
type Trail struct {
	keep   time.Duration
	points []trailPoint
}

func NewTrail(keep time.Duration) *Trail {
	return &Trail{keep: keep}
}

// Record adds the positions of s and drops points older than the retention
// window. A change in body count or a jump back in time starts a new trail.
func (t *Trail) Record(s physics.State) bool {
	if n := len(t.points); n > 0 {
		last := t.points[n-1]
		switch {
		case len(last.positions) != s.Len(), s.Elapsed < last.at:
			t.Reset()
		case !moved(last.positions, s.Bodies):
			return false
		}
	}

	positions := make([]physics.Vec2, s.Len())
	for i, b := range s.Bodies {
		positions[i] = b.Position
	}
	t.points = append(t.points, trailPoint{at: s.Elapsed, positions: positions})
	t.prune(s.Elapsed)
	return true
}

func (t *Trail) prune(now time.Duration) {
	cut := 0
	for cut < len(t.points)-1 && now-t.points[cut].at > t.keep {
		cut++
	}
	if cut > 0 {
		t.points = append(t.points[:0], t.points[cut:]...)
	}
}

func moved(prev []physics.Vec2, bodies []physics.Body) bool {
	for i, b := range bodies {
		if b.Position.Sub(prev[i]).Norm() > MinTrailStep {
			return true
		}
	}
	return false
}

func (t *Trail) Len() int { return len(t.points) }

// Path returns the kept positions of body i, oldest first.
func (t *Trail) Path(i int) []physics.Vec2 {
	path := make([]physics.Vec2, 0, len(t.points))
	for _, p := range t.points {
		if i < len(p.positions) {
			path = append(path, p.positions[i])
		}
	}
	return path
}

func (t *Trail) Reset() { t.points = t.points[:0] }
