package viz

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
)

const (
	// DefaultSpan is the world height shown at start, in meters.
	DefaultSpan = 700.0
	minSpan     = 10.0
	maxSpan     = 1e7
	zoomFactor  = 1.25
)

// Viewport maps world coordinates onto canvas dots. World y points up,
// screen y points down. A braille dot is close to square, so both axes share
// one scale.
type Viewport struct {
	Center physics.Vec2
	Span   float64
}

func NewViewport() Viewport {
	return Viewport{Span: DefaultSpan}
}

// Project returns the dot for p on a w x h canvas. ok is false when p falls
// outside it.
func (v Viewport) Project(p physics.Vec2, w, h int) (x, y int, ok bool) {
	scale := float64(h) / v.Span
	fx := float64(w)/2 + (p.X-v.Center.X)*scale
	fy := float64(h)/2 - (p.Y-v.Center.Y)*scale
	if !(fx >= 0 && fx < float64(w) && fy >= 0 && fy < float64(h)) {
		return 0, 0, false
	}
	return int(math.Floor(fx)), int(math.Floor(fy)), true
}

func (v Viewport) ZoomIn() Viewport {
	v.Span = math.Max(v.Span/zoomFactor, minSpan)
	return v
}

func (v Viewport) ZoomOut() Viewport {
	v.Span = math.Min(v.Span*zoomFactor, maxSpan)
	return v
}
