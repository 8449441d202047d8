package gui

import (
	"fmt"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/orbitsim/internal/physics"
)

const bodyRadius = 6

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	a.drawSim()
	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) project(p physics.Vec2) (rl.Vector2, bool) {
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	x, y, ok := a.view.Project(p, w, h)
	return rl.NewVector2(float32(x), float32(y)), ok
}

func (a *App) drawSim() {
	state := a.ctl.State()

	for i := range state.Bodies {
		col := rl.ColorAlpha(hexColor(a.ctl.Color(i)), 0.5)
		path := a.trail.Path(i)
		for j := 1; j < len(path); j++ {
			p0, ok0 := a.project(path[j-1])
			p1, ok1 := a.project(path[j])
			if ok0 && ok1 {
				rl.DrawLineV(p0, p1, col)
			}
		}
	}

	for i := state.Len() - 1; i >= 0; i-- {
		p, ok := a.project(state.Bodies[i].Position)
		if !ok {
			continue
		}
		rl.DrawCircleV(p, bodyRadius, hexColor(a.ctl.Color(i)))
		if a.ctl.Paused() && i == a.ctl.Selected() {
			rl.DrawCircleLines(int32(p.X), int32(p.Y), bodyRadius+4, ColSelect)
		}
	}
}

func (a *App) DrawHUD() {
	state := a.ctl.State()
	name := a.name
	if name == "" {
		name = "custom"
	}
	a.drawText("orbitsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", name), 160, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	if a.ctl.Paused() {
		status, col = "PAUSED", ColTextDim
		if a.ctl.Edited() {
			status += " (edited)"
		}
	}
	a.drawText(status, rl.GetScreenWidth()-180, 30, 16, col)

	e := a.kernel.Energies(state.Bodies)
	lines := []string{
		fmt.Sprintf("t      %.2f s", state.Elapsed.Seconds()),
		fmt.Sprintf("speed  %.1fx", a.ctl.Speed()),
		fmt.Sprintf("bodies %d", state.Len()),
		fmt.Sprintf("U      %.4e J", e.Potential),
		fmt.Sprintf("K      %.4e J", e.Kinetic),
		fmt.Sprintf("E      %.4e J", e.Total()),
	}
	for i, l := range lines {
		a.drawText(l, 30, 80+i*20, 14, ColText)
	}

	a.DrawTelemetry()

	bottom := rl.GetScreenHeight() - 40
	a.drawText("[SPACE] PAUSE  [R] RESET  [+/-] SPEED  [TAB] SELECT  [A/D] ADD/DEL  [C] CENTER  [Q] QUIT",
		rl.GetScreenWidth()-820, bottom, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", rl.GetFPS()), 30, bottom, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots total energy drift in ppm as a line strip.
func (a *App) DrawTelemetry() {
	drift := a.telemetry.Drift()
	if len(drift) < 2 {
		return
	}

	rectX, rectY := 30, rl.GetScreenHeight()-140
	width, height := 400, 60

	minVal, maxVal := drift[0], drift[0]
	for _, v := range drift {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(drift))
	for i, val := range drift {
		px := float32(rectX) + (float32(i)/float32(len(drift)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("dE: %+.1f ppm", drift[len(drift)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

// hexColor parses "#rrggbb", falling back to the accent color.
func hexColor(s string) rl.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 7 {
		return ColAccent
	}
	return rl.GetColor(uint(v<<8 | 0xff))
}
