package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	canvasCols      = 80
	canvasRows      = 24
	historyCapacity = 600
	maxTableRows    = 8
)

// FrameMsg carries one frame from the driver into the update loop.
type FrameMsg sim.Frame

type sessionDoneMsg struct{}

type errMsg struct{ err error }

// Model is the terminal live view.
type Model struct {
	session Session
	ctl     *Controls
	kernel  physics.Kernel
	name    string

	trail    *Trail
	energy   *History
	canvas   *Canvas
	view     Viewport
	table    table.Model
	theme    Theme
	styles   styles
	showHelp bool
	err      error
}

// NewModel builds a live view for cfg. Nothing is sent to the session until
// Init runs.
func NewModel(s Session, cfg *config.Config) Model {
	theme := Themes[0]
	st := newStyles(theme)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Mass", Width: 9},
			{Title: "Potential", Width: 11},
			{Title: "Kinetic", Width: 11},
		}),
		table.WithStyles(st.table),
	)

	m := Model{
		session: s,
		ctl:     NewControls(s, cfg.InitialState(), cfg.Colors(), cfg.Speed),
		kernel:  cfg.Kernel(),
		name:    cfg.Preset,
		trail:   NewTrail(cfg.TrailDuration()),
		energy:  NewHistory(historyCapacity),
		canvas:  NewCanvas(canvasCols, canvasRows),
		view:    NewViewport(),
		table:   t,
		theme:   theme,
		styles:  st,
	}
	m.trail.Record(m.ctl.State())
	m.refreshTable()
	return m
}

// Init hands the initial state to the driver and starts listening for frames.
func (m Model) Init() tea.Cmd {
	start := m.ctl.Initial()
	s := m.session
	return tea.Batch(
		func() tea.Msg {
			if err := s.Send(start); err != nil {
				return errMsg{err}
			}
			return nil
		},
		listen(s),
	)
}

func listen(s Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-s.Frames():
			return FrameMsg(f)
		case <-s.Done():
			return sessionDoneMsg{}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg.String())
		return m, cmd
	case FrameMsg:
		if m.ctl.Receive(sim.Frame(msg)) {
			m.trail.Record(m.ctl.State())
			m.energy.Push(m.kernel.Energies(m.ctl.State().Bodies).Total())
			m.refreshTable()
		}
		return m, listen(m.session)
	case tea.WindowSizeMsg:
		cols := msg.Width - panelWidth - 8
		rows := msg.Height - 4
		m.canvas.Resize(max(cols, 20), max(rows, 8))
	case sessionDoneMsg:
		return m, tea.Quit
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		restarted, err := m.ctl.TogglePause()
		if restarted {
			m.restart()
		}
		return m.fail(err)
	case "r":
		err := m.ctl.Reset()
		m.restart()
		return m.fail(err)
	case "+", "=":
		return m.fail(m.ctl.AdjustSpeed(config.SpeedIncrement))
	case "-", "_":
		return m.fail(m.ctl.AdjustSpeed(-config.SpeedIncrement))
	case "tab":
		m.ctl.Select(1)
		m.table.SetCursor(m.ctl.Selected())
	case "shift+tab":
		m.ctl.Select(-1)
		m.table.SetCursor(m.ctl.Selected())
	case "a":
		if m.ctl.AddBody(m.view.Center) {
			m.refreshTable()
		}
	case "d", "delete":
		if m.ctl.RemoveBody() {
			m.refreshTable()
		}
	case "i":
		m.view = m.view.ZoomIn()
	case "o":
		m.view = m.view.ZoomOut()
	case "c":
		m.view.Center = physics.CenterOfMass(m.ctl.State().Bodies)
	case "t":
		m.theme = m.theme.Next()
		m.styles = newStyles(m.theme)
		m.table.SetStyles(m.styles.table)
	case "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

// fail records a session error and ends the program.
func (m *Model) fail(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	m.err = err
	return tea.Quit
}

func (m *Model) restart() {
	m.trail.Reset()
	m.trail.Record(m.ctl.State())
	m.energy.Reset()
	m.refreshTable()
}

func (m *Model) refreshTable() {
	state := m.ctl.State()
	rows := make([]table.Row, 0, state.Len())
	for _, r := range m.kernel.EnergyTable(state.Bodies) {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.Index),
			fmt.Sprintf("%.2e", state.Bodies[r.Index].Mass),
			fmt.Sprintf("%.4e", r.Potential),
			fmt.Sprintf("%.4e", r.Kinetic),
		})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(min(len(rows), maxTableRows) + 2)
	m.table.SetCursor(m.ctl.Selected())
}

func (m Model) Paused() bool         { return m.ctl.Paused() }
func (m Model) Speed() float64       { return m.ctl.Speed() }
func (m Model) State() physics.State { return m.ctl.State().Clone() }
func (m Model) Selected() int        { return m.ctl.Selected() }
func (m Model) Err() error           { return m.err }

func (m *Model) draw() {
	m.canvas.Clear()
	w, h := m.canvas.Dots()
	state := m.ctl.State()

	for i := range state.Bodies {
		path := m.trail.Path(i)
		for j := 1; j < len(path); j++ {
			x0, y0, ok0 := m.view.Project(path[j-1], w, h)
			x1, y1, ok1 := m.view.Project(path[j], w, h)
			if ok0 && ok1 {
				m.canvas.Line(x0, y0, x1, y1, i)
			}
		}
	}

	// later bodies first so body 0 ends up on top
	for i := state.Len() - 1; i >= 0; i-- {
		x, y, ok := m.view.Project(state.Bodies[i].Position, w, h)
		if !ok {
			continue
		}
		r := 1
		if m.ctl.Paused() && i == m.ctl.Selected() {
			r = 2
		}
		m.canvas.Disc(x, y, r, i)
	}
}

func (m Model) paint(owner int, s string) string {
	if owner < 0 || owner >= m.ctl.State().Len() {
		return s
	}
	return bodyStyle(m.ctl.Color(owner)).Render(s)
}

// View renders the canvas beside the panel.
func (m Model) View() string {
	m.draw()
	canvasView := m.styles.canvas.Render(m.canvas.Render(m.paint))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.panel())
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

func (m Model) panel() string {
	st := m.styles
	state := m.ctl.State()
	var s strings.Builder

	name := m.name
	if name == "" {
		name = "custom"
	}
	s.WriteString(st.header.Render(strings.ToUpper(name)) + "\n")
	if m.ctl.Paused() {
		status := "PAUSED"
		if m.ctl.Edited() {
			status += " (edited)"
		}
		s.WriteString(st.paused.Render(status) + "\n\n")
	} else {
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f s", state.Elapsed.Seconds()))
	row("Speed", fmt.Sprintf("%.1fx", m.ctl.Speed()))
	row("Bodies", fmt.Sprintf("%d", state.Len()))
	row("Frames", fmt.Sprintf("%d", m.ctl.Frames()))

	s.WriteString("\n" + m.table.View() + "\n\n")

	e := m.kernel.Energies(state.Bodies)
	row("Potential", fmt.Sprintf("%.6e J", e.Potential))
	row("Kinetic", fmt.Sprintf("%.6e J", e.Kinetic))
	row("Total", fmt.Sprintf("%.6e J", e.Total()))

	if drift := m.energy.Drift(); len(drift) > 1 {
		chart := asciigraph.Plot(drift,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.Precision(1),
			asciigraph.Caption("Energy drift (ppm)"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset +/-:Speed Q:Quit\nTab:Select A:Add D:Delete ?:Help"))
	return st.panel.Render(s.String())
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset to last edit       ║
║  +/-      - Speed (0 to 20)          ║
║  Tab      - Select next body         ║
║  A / D    - Add / delete (paused)    ║
║  I / O    - Zoom in / out            ║
║  C        - Center on mass           ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
