// Package export renders recorded runs into formats meant for people rather
// than for reloading.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/physics"
)

var ErrNoData = errors.New("export: not enough states to draw")

const defaultStroke = "#00ff00"

// TrajectoriesSVG draws the path of every body across states as one polyline
// per body, with a dot at its final position. All bodies share one scale so
// relative distances stay true.
func TrajectoriesSVG(w io.Writer, states []physics.State, colors []string, width, height int) error {
	if len(states) < 2 || states[0].Len() == 0 {
		return ErrNoData
	}
	n := states[0].Len()

	// Find bounds
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range states {
		if s.Len() != n {
			return fmt.Errorf("export: body count changed from %d to %d", n, s.Len())
		}
		for _, b := range s.Bodies {
			minX, maxX = math.Min(minX, b.Position.X), math.Max(maxX, b.Position.X)
			minY, maxY = math.Min(minY, b.Position.Y), math.Max(maxY, b.Position.Y)
		}
	}

	// Add padding
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	pad := span * 0.1
	scale := math.Min(float64(width), float64(height)) / (span + 2*pad)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	project := func(p physics.Vec2) (float64, float64) {
		return float64(width)/2 + (p.X-cx)*scale, float64(height)/2 - (p.Y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i := 0; i < n; i++ {
		stroke := defaultStroke
		if i < len(colors) && colors[i] != "" {
			stroke = colors[i]
		}

		sb.WriteString(`<path fill="none" stroke="` + stroke + `" stroke-width="1.5" d="M`)
		for j, s := range states {
			x, y := project(s.Bodies[i].Position)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		x, y := project(states[len(states)-1].Bodies[i].Position)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", x, y, stroke)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
