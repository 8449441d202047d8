package sim

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/physics"
)

// tapSink runs a queued function on the driver goroutine at the start of
// the next Send.
type tapSink struct {
	*Stream
	tap chan func()
}

func (s *tapSink) Send(f Frame) error {
	select {
	case fn := <-s.tap:
		fn()
	default:
	}
	return s.Stream.Send(f)
}

var _ = Describe("Driver", func() {
	var (
		cfg    Config
		kernel physics.Kernel
		in     chan Instruction
		out    *Stream
		sink   *tapSink
		driver *Driver
		errc   chan error
		s0     physics.State
	)

	next := func() Frame {
		var f Frame
		EventuallyWithOffset(1, out.Frames()).Should(Receive(&f))
		return f
	}

	// untilStopped skips frames emitted before the driver saw our last
	// instruction, up to limit frames.
	untilStopped := func(limit int) {
		for i := 0; i < limit; i++ {
			if next().Stopped() {
				return
			}
		}
		Fail("no empty frame received")
	}

	BeforeEach(func() {
		cfg = testConfig()
		kernel = physics.DefaultKernel()
		in = make(chan Instruction, 8)
		out = NewStream(0)
		sink = &tapSink{Stream: out, tap: make(chan func(), 1)}
		driver = New(cfg, WithClock(newFakeClock(time.Millisecond)))
		errc = make(chan error, 1)
		s0 = threeBodies()

		go func() { errc <- driver.Run(context.Background(), in, sink) }()
	})

	AfterEach(func() {
		out.Close()
		Eventually(errc, 5*time.Second).Should(Receive(BeNil()))
	})

	Context("awaiting the initial state", func() {
		It("ignores stop and state-less configure", func() {
			in <- Stop()
			in <- Configure(2, nil)
			Consistently(out.Frames(), 50*time.Millisecond).ShouldNot(Receive())
		})

		It("starts with the first replacement state and the latest speed", func() {
			in <- Configure(2, nil)
			in <- Configure(2, &s0)

			first := next()
			Expect(first.Stopped()).To(BeFalse())
			Expect(first.State.Bodies).To(Equal(s0.Bodies))
			Expect(first.State.Elapsed).To(BeZero())

			second := next()
			Expect(second.State.Elapsed).To(Equal(cfg.Simulated(cfg.StepsPerTick(2))))
		})
	})

	Context("running", func() {
		BeforeEach(func() {
			in <- Configure(1.0, &s0)
		})

		It("emits successive kernel advances with growing elapsed time", func() {
			steps := cfg.StepsPerTick(1.0)
			prev := next()
			Expect(prev.State.Bodies).To(Equal(s0.Bodies))

			for i := 0; i < 20; i++ {
				f := next()
				Expect(f.Stopped()).To(BeFalse())

				want := kernel.AdvanceN(*prev.State, cfg.Step, steps)
				Expect(f.State.Bodies).To(Equal(want.Bodies))
				Expect(f.State.Elapsed).To(Equal(prev.State.Elapsed + cfg.Simulated(steps)))
				Expect(f.State.Elapsed).To(BeNumerically(">=", prev.State.Elapsed))
				prev = f
			}
		})

		It("hands out independent snapshots", func() {
			a := next()
			a.State.Bodies[0].Mass = -1
			b := next()
			Expect(b.State.Bodies[0].Mass).To(Equal(1e16))
		})

		It("emits exactly one empty frame per stop", func() {
			next()
			in <- Stop()
			untilStopped(10)

			in <- Stop()
			in <- Configure(3, nil)
			Consistently(out.Frames(), 50*time.Millisecond).ShouldNot(Receive())
		})

		It("resumes from a replacement state after stop", func() {
			next()
			in <- Stop()
			untilStopped(10)

			resume := physics.NewState(physics.NewBody(5e15, physics.V(1, 2), physics.V(3, 4)))
			in <- Configure(1, &resume)

			f := next()
			Expect(f.Stopped()).To(BeFalse())
			Expect(f.State.Bodies).To(Equal(resume.Bodies))

			in <- Stop()
			untilStopped(10)
		})

		It("replaces state and speed while running", func() {
			next()
			replacement := physics.NewState(
				physics.NewBody(1e16, physics.V(0, 0), physics.V(0, 0)),
				physics.NewBody(1e16, physics.V(100, 0), physics.V(0, 0)),
			)
			in <- Configure(0, &replacement)

			var f Frame
			for i := 0; i < 10; i++ {
				if f = next(); f.State.Len() == 2 {
					break
				}
			}
			Expect(f.State.Len()).To(Equal(2))
			Expect(f.State.Bodies).To(Equal(replacement.Bodies))

			// speed 0 freezes the state
			g := next()
			Expect(g.State.Bodies).To(Equal(f.State.Bodies))
			Expect(g.State.Elapsed).To(Equal(f.State.Elapsed))
		})

		It("applies only the latest of several pending instructions", func() {
			one := cfg.Simulated(cfg.StepsPerTick(1))
			fast := cfg.Simulated(cfg.StepsPerTick(5))

			prev := next()
			// queued from inside Send, so both are pending at the next drain
			sink.tap <- func() {
				in <- Configure(5, nil)
				in <- Configure(0, nil)
			}

			var deltas []time.Duration
			for i := 0; i < 4; i++ {
				f := next()
				deltas = append(deltas, f.State.Elapsed-prev.State.Elapsed)
				prev = f
			}

			Expect(deltas).NotTo(ContainElement(fast))
			for _, d := range deltas {
				Expect(d).To(Or(Equal(one), BeZero()))
			}
			Expect(deltas[len(deltas)-1]).To(BeZero())
		})
	})
})

var _ = Describe("Session", func() {
	It("runs a driver until closed", func() {
		sess := Start(context.Background(), New(testConfig(), WithClock(newFakeClock(0))))
		s := threeBodies()
		Expect(sess.Send(Configure(1, &s))).To(Succeed())

		var f Frame
		Eventually(sess.Frames()).Should(Receive(&f))
		Expect(f.State.Len()).To(Equal(3))

		Expect(sess.Close()).To(Succeed())
		Eventually(sess.Done()).Should(BeClosed())
		Expect(sess.Send(Stop())).To(MatchError(ErrDisconnected))
	})

	It("can be closed before any state was sent", func() {
		sess := Start(context.Background(), New(DefaultConfig()))
		Expect(sess.Close()).To(Succeed())
		Expect(sess.Driver().Stats().Terminated).To(BeTrue())
	})
})
