// Package gui is a desktop window for a live session, drawn with raylib.
// It shares its pause, reset and edit rules with the terminal view.
package gui

import (
	"context"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/viz"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	targetFPS    = 60
	telemetryCap = 400
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

type App struct {
	session viz.Session
	ctl     *viz.Controls
	kernel  physics.Kernel
	name    string

	trail     *viz.Trail
	telemetry *viz.History
	view      viz.Viewport
	font      rl.Font
	quit      bool
	err       error
}

func initWindow() {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(windowWidth, windowHeight, "orbitsim")
	rl.SetTargetFPS(targetFPS)
	rl.SetExitKey(0)
}

// loadFont falls back to the built-in font when Liberation Mono is missing.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(s viz.Session, cfg *config.Config) *App {
	a := &App{
		session:   s,
		ctl:       viz.NewControls(s, cfg.InitialState(), cfg.Colors(), cfg.Speed),
		kernel:    cfg.Kernel(),
		name:      cfg.Preset,
		trail:     viz.NewTrail(cfg.TrailDuration()),
		telemetry: viz.NewHistory(telemetryCap),
		view:      viz.NewViewport(),
	}
	a.trail.Record(a.ctl.State())
	return a
}

// Run opens the window and blocks until it is closed, ctx is done or the
// session ends. raylib needs the main OS thread, so call Run from main.
func Run(ctx context.Context, s viz.Session, cfg *config.Config) error {
	initWindow()
	defer rl.CloseWindow()

	a := NewApp(s, cfg)
	a.font = loadFont()
	if err := s.Send(a.ctl.Initial()); err != nil {
		return err
	}
	return a.RunLoop(ctx)
}

func (a *App) RunLoop(ctx context.Context) error {
	for !rl.WindowShouldClose() && !a.quit && a.err == nil {
		select {
		case <-ctx.Done():
			return nil
		case <-a.session.Done():
			return nil
		default:
		}
		a.drain()
		a.Update()
		a.Draw()
	}
	return a.err
}

// drain applies every frame that arrived since the last redraw.
func (a *App) drain() {
	for {
		select {
		case f := <-a.session.Frames():
			a.receive(f)
		default:
			return
		}
	}
}

func (a *App) receive(f sim.Frame) {
	if !a.ctl.Receive(f) {
		return
	}
	state := a.ctl.State()
	a.trail.Record(state)
	a.telemetry.Push(a.kernel.Energies(state.Bodies).Total())
}

func (a *App) restart() {
	a.trail.Reset()
	a.trail.Record(a.ctl.State())
	a.telemetry.Reset()
}

func (a *App) Update() {
	switch {
	case rl.IsKeyPressed(rl.KeyQ):
		a.quit = true
	case rl.IsKeyPressed(rl.KeySpace):
		restarted, err := a.ctl.TogglePause()
		if restarted {
			a.restart()
		}
		a.err = err
	case rl.IsKeyPressed(rl.KeyR):
		a.err = a.ctl.Reset()
		a.restart()
	case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
		a.err = a.ctl.AdjustSpeed(config.SpeedIncrement)
	case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
		a.err = a.ctl.AdjustSpeed(-config.SpeedIncrement)
	case rl.IsKeyPressed(rl.KeyTab):
		a.ctl.Select(1)
	case rl.IsKeyPressed(rl.KeyA):
		a.ctl.AddBody(a.view.Center)
	case rl.IsKeyPressed(rl.KeyD), rl.IsKeyPressed(rl.KeyDelete):
		a.ctl.RemoveBody()
	case rl.IsKeyPressed(rl.KeyC):
		a.view.Center = physics.CenterOfMass(a.ctl.State().Bodies)
	}

	if wheel := rl.GetMouseWheelMove(); wheel > 0 {
		a.view = a.view.ZoomIn()
	} else if wheel < 0 {
		a.view = a.view.ZoomOut()
	}
}
