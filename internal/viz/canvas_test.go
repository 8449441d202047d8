package viz

import (
	"fmt"
	"testing"

	"github.com/san-kum/orbitsim/internal/physics"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	if w != 8 || h != 8 {
		t.Fatalf("expected 8x8 dots, got %dx%d", w, h)
	}

	c.Set(3, 5, 0)
	if !c.Lit(3, 5) {
		t.Error("dot not lit")
	}
	if c.Lit(2, 5) {
		t.Error("neighbour lit")
	}

	// off canvas
	c.Set(-1, 0, 0)
	c.Set(0, -1, 0)
	c.Set(8, 0, 0)
	c.Set(0, 8, 0)
	c.Clear()
	if c.Lit(3, 5) {
		t.Error("clear left dot lit")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0, 0)
	c.Set(3, 3, 0)
	if got, want := c.String(), "⠁⢀\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(10, 3)
	c.Line(0, 0, 9, 9, 0)
	for i := 0; i <= 9; i++ {
		if !c.Lit(i, i) {
			t.Errorf("diagonal dot %d not lit", i)
		}
	}

	c.Clear()
	c.Line(5, 2, 5, 2, 0)
	if !c.Lit(5, 2) {
		t.Error("single point line not drawn")
	}
}

func TestCanvasDisc(t *testing.T) {
	c := NewCanvas(5, 3)
	c.Disc(4, 4, 1, 0)

	lit := 0
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.Lit(x, y) {
				lit++
			}
		}
	}
	if lit != 5 {
		t.Errorf("expected 5 dots, got %d", lit)
	}
}

func TestCanvasRenderPaintsOwners(t *testing.T) {
	c := NewCanvas(3, 1)
	c.Set(0, 0, 0)
	c.Set(4, 0, 1)

	got := c.Render(func(owner int, s string) string {
		return fmt.Sprintf("[%d:%s]", owner, s)
	})
	if want := "[0:⠁]⠀[1:⠁]\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestViewportProject(t *testing.T) {
	v := NewViewport()
	w, h := 160, 96

	tests := []struct {
		name   string
		p      physics.Vec2
		x, y   int
		inside bool
	}{
		{"center", physics.V(0, 0), 80, 48, true},
		{"near top edge", physics.V(0, 349), 80, 0, true},
		{"below bottom edge", physics.V(0, -351), 0, 0, false},
		{"far right", physics.V(1e9, 0), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := v.Project(tt.p, w, h)
			if ok != tt.inside {
				t.Fatalf("inside = %v, want %v", ok, tt.inside)
			}
			if ok && (x != tt.x || y != tt.y) {
				t.Errorf("got (%d, %d), want (%d, %d)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestViewportZoomBounds(t *testing.T) {
	v := NewViewport()
	for i := 0; i < 100; i++ {
		v = v.ZoomIn()
	}
	if v.Span != minSpan {
		t.Errorf("expected span %v, got %v", minSpan, v.Span)
	}
	for i := 0; i < 200; i++ {
		v = v.ZoomOut()
	}
	if v.Span != maxSpan {
		t.Errorf("expected span %v, got %v", maxSpan, v.Span)
	}
}
