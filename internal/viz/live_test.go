package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

type fakeSession struct {
	sent   []sim.Instruction
	frames chan sim.Frame
	done   chan struct{}
	err    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		frames: make(chan sim.Frame, 1),
		done:   make(chan struct{}),
	}
}

func (f *fakeSession) Send(ins sim.Instruction) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ins)
	return nil
}

func (f *fakeSession) Frames() <-chan sim.Frame { return f.frames }
func (f *fakeSession) Done() <-chan struct{}    { return f.done }

func (f *fakeSession) last(t *testing.T) sim.Instruction {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

func newTestModel(t *testing.T) (Model, *fakeSession) {
	t.Helper()
	cfg := config.DefaultConfig()
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	fs := newFakeSession()
	return NewModel(fs, cfg), fs
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func deliver(m Model, s physics.State) (Model, tea.Cmd) {
	next, cmd := m.Update(FrameMsg{State: &s})
	return next.(Model), cmd
}

func shifted(m Model) physics.State {
	s := m.State()
	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.Add(physics.V(20, 0))
	}
	s.Elapsed = 40 * time.Millisecond
	return s
}

func TestInitSendsInitialState(t *testing.T) {
	m, fs := newTestModel(t)

	batch, ok := m.Init()().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected a batch of two commands")
	}
	if msg := batch[0](); msg != nil {
		t.Fatalf("unexpected message %v", msg)
	}

	ins := fs.last(t)
	st, ok := ins.Replacement()
	if ins.IsStop() || !ok || ins.Speed() != config.DefaultSpeed {
		t.Fatalf("unexpected instruction %v", ins)
	}
	if st.Len() != 3 || st.Bodies[1].Position != physics.V(100, -100) {
		t.Errorf("unexpected initial state %+v", st)
	}
}

func TestFramesUpdateState(t *testing.T) {
	m, _ := newTestModel(t)
	next := shifted(m)

	m, cmd := deliver(m, next)
	if cmd == nil {
		t.Error("expected to keep listening")
	}
	if got := m.State(); got.Elapsed != next.Elapsed || got.Bodies[0] != next.Bodies[0] {
		t.Errorf("frame not applied")
	}

	// the stop marker keeps the last state
	nm, _ := m.Update(FrameMsg{})
	if nm.(Model).State().Elapsed != next.Elapsed {
		t.Error("stopped frame replaced the state")
	}
}

func TestPauseStopsDriverAndHoldsState(t *testing.T) {
	m, fs := newTestModel(t)
	held := m.State()

	m, _ = press(m, " ")
	if !m.Paused() || !fs.last(t).IsStop() {
		t.Fatal("pause did not send stop")
	}

	m, _ = deliver(m, shifted(m))
	if m.State().Bodies[0] != held.Bodies[0] {
		t.Error("frame applied while paused")
	}
}

func TestEditsOnlyWhilePaused(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(m, "a")
	m, _ = press(m, "d")
	if m.State().Len() != 3 {
		t.Fatalf("edited while running")
	}

	m, _ = press(m, " ")
	m, _ = press(m, "tab")
	m, _ = press(m, "a")
	s := m.State()
	if s.Len() != 4 || m.Selected() != 3 {
		t.Fatalf("expected a fourth selected body, got %d bodies, selected %d", s.Len(), m.Selected())
	}
	if want := s.Bodies[1].Position.Add(physics.V(addOffset, addOffset)); s.Bodies[3].Position != want {
		t.Errorf("added body at %v, want %v", s.Bodies[3].Position, want)
	}

	m, _ = press(m, "d")
	m, _ = press(m, "d")
	if m.State().Len() != 2 || m.Selected() != 1 {
		t.Errorf("expected 2 bodies, selected 1, got %d, %d", m.State().Len(), m.Selected())
	}
}

func TestResumeSendsEditedState(t *testing.T) {
	m, fs := newTestModel(t)
	m, _ = deliver(m, shifted(m))

	m, _ = press(m, " ")
	m, _ = press(m, "d")
	m, _ = press(m, " ")

	ins := fs.last(t)
	st, ok := ins.Replacement()
	if m.Paused() || !ok || st.Len() != 2 {
		t.Fatalf("resume sent %v", ins)
	}
	if st.Elapsed != 40*time.Millisecond {
		t.Errorf("resume lost elapsed time: %v", st.Elapsed)
	}

	// reset now goes back to the edit, not the preset
	m, _ = deliver(m, shifted(m))
	m, _ = press(m, "r")
	st, ok = fs.last(t).Replacement()
	if !ok || st.Len() != 2 || st.Elapsed != 0 {
		t.Errorf("reset sent %+v", st)
	}
	if m.State().Len() != 2 {
		t.Errorf("reset displayed %d bodies", m.State().Len())
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	m, fs := newTestModel(t)
	initial := m.State()
	m, _ = deliver(m, shifted(m))

	m, _ = press(m, "r")
	st, ok := fs.last(t).Replacement()
	if !ok || st.Bodies[2] != initial.Bodies[2] {
		t.Errorf("reset sent %+v", st)
	}

	// paused reset only changes the display
	m, _ = deliver(m, shifted(m))
	m, _ = press(m, " ")
	n := len(fs.sent)
	m, _ = press(m, "r")
	if len(fs.sent) != n {
		t.Error("paused reset sent an instruction")
	}
	if m.State().Bodies[0] != initial.Bodies[0] {
		t.Error("paused reset did not restore the display")
	}
}

func TestSpeedKeys(t *testing.T) {
	m, fs := newTestModel(t)

	m, _ = press(m, "+")
	ins := fs.last(t)
	if _, ok := ins.Replacement(); ok || ins.Speed() != 1.1 {
		t.Errorf("expected speed-only configure at 1.1, got %v", ins)
	}

	for i := 0; i < 250; i++ {
		m, _ = press(m, "+")
	}
	if m.Speed() != config.MaxSpeed {
		t.Errorf("expected speed capped at %v, got %v", config.MaxSpeed, m.Speed())
	}

	m, _ = press(m, " ")
	n := len(fs.sent)
	for i := 0; i < 250; i++ {
		m, _ = press(m, "-")
	}
	if m.Speed() != 0 {
		t.Errorf("expected speed floored at 0, got %v", m.Speed())
	}
	if len(fs.sent) != n {
		t.Error("speed change sent while paused")
	}

	m, _ = press(m, " ")
	if fs.last(t).Speed() != 0 {
		t.Error("resume did not carry the new speed")
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit")
	}
}

func TestSendFailureQuits(t *testing.T) {
	m, fs := newTestModel(t)
	fs.err = sim.ErrDisconnected

	m, cmd := press(m, " ")
	if !errors.Is(m.Err(), sim.ErrDisconnected) {
		t.Errorf("expected disconnect error, got %v", m.Err())
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestSessionDoneQuits(t *testing.T) {
	m, fs := newTestModel(t)
	close(fs.done)

	msg := listen(fs)()
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit")
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = deliver(m, shifted(m))

	out := m.View()
	for _, want := range []string{"TRIANGLE", "RUNNING", "Potential", "Speed"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = press(m, " ")
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view missing paused status")
	}
}
