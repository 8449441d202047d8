package viz

import (
	"testing"
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
)

func at(elapsed time.Duration, xs ...float64) physics.State {
	s := physics.State{Elapsed: elapsed}
	for _, x := range xs {
		s.Bodies = append(s.Bodies, physics.NewBody(1, physics.V(x, 0), physics.V(0, 0)))
	}
	return s
}

func TestTrailSkipsSmallMoves(t *testing.T) {
	tr := NewTrail(5 * time.Second)

	if !tr.Record(at(0, 0, 100)) {
		t.Fatal("first point not kept")
	}
	if tr.Record(at(time.Millisecond, 3, 100)) {
		t.Error("kept a move below the minimum step")
	}
	if !tr.Record(at(2*time.Millisecond, 0, 106)) {
		t.Error("dropped a move above the minimum step")
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 points, got %d", tr.Len())
	}

	path := tr.Path(1)
	if len(path) != 2 || path[0].X != 100 || path[1].X != 106 {
		t.Errorf("unexpected path %v", path)
	}
}

func TestTrailDropsOldPoints(t *testing.T) {
	tr := NewTrail(time.Second)

	tr.Record(at(0, 0))
	tr.Record(at(500*time.Millisecond, 10))
	tr.Record(at(2*time.Second, 20))
	if tr.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", tr.Len())
	}

	tr.Record(at(2500*time.Millisecond, 30))
	if tr.Len() != 2 {
		t.Errorf("expected 2 points, got %d", tr.Len())
	}
}

func TestTrailRestarts(t *testing.T) {
	tests := []struct {
		name string
		next physics.State
	}{
		{"body added", at(time.Second, 100, 200)},
		{"time went back", at(0, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrail(5 * time.Second)
			tr.Record(at(500*time.Millisecond, 0))
			tr.Record(at(600*time.Millisecond, 50))

			if !tr.Record(tt.next) {
				t.Fatal("point not kept")
			}
			if tr.Len() != 1 {
				t.Errorf("expected a fresh trail, got %d points", tr.Len())
			}
		})
	}
}
