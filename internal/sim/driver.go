package sim

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/orbitsim/internal/physics"
)

// Clock abstracts wall time for pacing.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Option func(*Driver)

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

func WithKernel(k physics.Kernel) Option {
	return func(d *Driver) { d.kernel = k }
}

func WithClock(c Clock) Option {
	return func(d *Driver) {
		if c != nil {
			d.clock = c
		}
	}
}

// Driver paces a physics.Kernel against wall-clock time. A Driver runs at
// most once.
type Driver struct {
	cfg    Config
	kernel physics.Kernel
	clock  Clock
	log    *zap.Logger

	mu    sync.Mutex
	stats Stats
}

func New(cfg Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:    cfg,
		kernel: physics.DefaultKernel(),
		clock:  realClock{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Config() Config { return d.cfg }

func (d *Driver) Kernel() physics.Kernel { return d.kernel }

func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Run executes the driver loop on the calling goroutine until the sink
// reports a disconnect, ctx is done, or in is closed before any state was
// received. None of these is an error; Run only fails on an invalid config.
func (d *Driver) Run(ctx context.Context, in <-chan Instruction, out Sink) error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}
	defer d.terminate()

	state, speed, ok := d.awaitInitial(ctx, in, doneOf(out))
	if !ok {
		return nil
	}

	d.log.Debug("simulation started",
		zap.Int("bodies", state.Len()),
		zap.Float64("speed", speed))

	held := &state
	noneSent := false
	interval := d.cfg.TickInterval()

	for {
		start := d.clock.Now()

		if disconnected(out) {
			d.log.Info("consumer disconnected")
			return nil
		}

		ins, received, open := drain(in)
		if !open {
			in = nil
		}
		if received {
			held, speed = d.apply(ins, held, speed)
			if held != nil {
				noneSent = false
			}
		}

		steps := 0
		if held == nil {
			if !noneSent {
				if err := out.Send(Frame{}); err != nil {
					d.log.Info("consumer disconnected", zap.Error(err))
					return nil
				}
				noneSent = true
				d.countFrame()
			}
		} else {
			snapshot := held.Clone()
			if err := out.Send(Frame{State: &snapshot}); err != nil {
				d.log.Info("consumer disconnected", zap.Error(err))
				return nil
			}
			d.countFrame()

			steps = d.cfg.StepsPerTick(speed)
			next := d.kernel.AdvanceN(*held, d.cfg.Step, steps)
			next.Elapsed += d.cfg.Simulated(steps)
			held = &next
		}

		taken := d.clock.Now().Sub(start)
		d.countTick(steps, taken, held != nil, taken > interval)

		if err := d.clock.Sleep(ctx, pause(interval, taken)); err != nil {
			d.log.Info("simulation cancelled", zap.Error(err))
			return nil
		}
	}
}

// awaitInitial blocks until a Configure carrying a state arrives. Stop and
// state-less Configure instructions are absorbed (the latter still set the
// speed).
func (d *Driver) awaitInitial(ctx context.Context, in <-chan Instruction, gone <-chan struct{}) (physics.State, float64, bool) {
	speed := 1.0
	for {
		select {
		case <-ctx.Done():
			return physics.State{}, 0, false
		case <-gone:
			d.log.Debug("consumer disconnected before start")
			return physics.State{}, 0, false
		case ins, ok := <-in:
			if !ok {
				d.log.Debug("instruction channel closed before start")
				return physics.State{}, 0, false
			}
			if ins.IsStop() {
				continue
			}
			speed = ins.Speed()
			if s, ok := ins.Replacement(); ok {
				return s, speed, true
			}
		}
	}
}

func (d *Driver) apply(ins Instruction, held *physics.State, speed float64) (*physics.State, float64) {
	if ins.IsStop() {
		if held != nil {
			d.log.Debug("simulation stopped")
		}
		return nil, speed
	}

	if s, ok := ins.Replacement(); ok {
		d.log.Debug("state replaced",
			zap.Int("bodies", s.Len()),
			zap.Float64("speed", ins.Speed()))
		return &s, ins.Speed()
	}

	d.log.Debug("speed changed", zap.Float64("speed", ins.Speed()))
	return held, ins.Speed()
}

// drain reads every instruction that is ready without blocking and returns
// only the last one. Instructions are whole overwrites of speed (and maybe
// state), so earlier ones in the same tick have no lasting effect and are
// dropped. The read count is bounded so a flooding sender cannot stall the
// tick. open is false once in is closed; a nil in is never ready.
func drain(in <-chan Instruction) (latest Instruction, received bool, open bool) {
	limit := cap(in) + 1
	for i := 0; i < limit; i++ {
		select {
		case ins, ok := <-in:
			if !ok {
				return latest, received, false
			}
			latest, received = ins, true
		default:
			return latest, received, true
		}
	}
	return latest, received, true
}

// doneOf returns the disconnect channel of sinks that expose one, such as
// Stream. Other sinks only report a disconnect through Send.
func doneOf(out Sink) <-chan struct{} {
	if s, ok := out.(interface{ Done() <-chan struct{} }); ok {
		return s.Done()
	}
	return nil
}

// disconnected lets a stopped driver, which emits nothing, still notice that
// its consumer is gone.
func disconnected(out Sink) bool {
	select {
	case <-doneOf(out):
		return true
	default:
		return false
	}
}

// pause is the sleep that keeps the tick rate at interval after taken was
// spent working.
func pause(interval, taken time.Duration) time.Duration {
	if d := interval - taken; d > MinSleep {
		return d
	}
	return MinSleep
}

func (d *Driver) countFrame() {
	d.mu.Lock()
	d.stats.Frames++
	d.mu.Unlock()
}

func (d *Driver) countTick(steps int, taken time.Duration, running, overrun bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Ticks++
	d.stats.Steps += uint64(steps)
	d.stats.LastTick = taken
	d.stats.Running = running
	if overrun {
		d.stats.Overruns++
	}
}

func (d *Driver) terminate() {
	d.mu.Lock()
	d.stats.Running = false
	d.stats.Terminated = true
	st := d.stats
	d.mu.Unlock()

	d.log.Info("simulation driver terminated",
		zap.Uint64("ticks", st.Ticks),
		zap.Uint64("frames", st.Frames),
		zap.Uint64("steps", st.Steps))
}
