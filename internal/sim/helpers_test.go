package sim

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
)

// fakeClock advances by work on every Now call, so each tick appears to
// take exactly work, and never really sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	work   time.Duration
	sleeps []time.Duration
}

func newFakeClock(work time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), work: work}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.work)
	return t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	c.mu.Unlock()
	runtime.Gosched()
	return ctx.Err()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// testConfig gives 20 kernel steps per tick at speed 1.
func testConfig() Config {
	return Config{TargetFPS: 50, Step: 0.001}
}

func threeBodies() physics.State {
	return physics.NewState(
		physics.NewBody(1e16, physics.V(0, 0), physics.V(0, 0)),
		physics.NewBody(1e16, physics.V(100, -100), physics.V(0, 0)),
		physics.NewBody(1e16, physics.V(-200, -100), physics.V(0, 0)),
	)
}
