package sim

import (
	"context"
	"sync"
)

// InstructionBuffer is the inbound queue length used by Start.
const InstructionBuffer = 16

// Session is a running driver together with both of its channels, as seen
// from the consumer side.
type Session struct {
	driver *Driver
	in     chan Instruction
	out    *Stream
	done   chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Start runs d on a new goroutine.
func Start(ctx context.Context, d *Driver) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cancel: cancel,
		driver: d,
		in:     make(chan Instruction, InstructionBuffer),
		out:    NewStream(1),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		err := d.Run(ctx, s.in, s.out)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()

	return s
}

// Send queues an instruction. It returns ErrDisconnected if the driver has
// already terminated.
func (s *Session) Send(ins Instruction) error {
	select {
	case <-s.done:
		return ErrDisconnected
	default:
	}

	select {
	case s.in <- ins:
		return nil
	case <-s.done:
		return ErrDisconnected
	}
}

func (s *Session) Frames() <-chan Frame { return s.out.Frames() }

// Done is closed when the driver goroutine has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Driver() *Driver { return s.driver }

// Err returns the driver's result once Done is closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close disconnects the consumer and waits for the driver to return. A
// driver still waiting for its first state is cancelled.
func (s *Session) Close() error {
	s.out.Close()
	s.cancel()
	<-s.done
	return s.Err()
}
