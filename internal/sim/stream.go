package sim

import "sync"

// Sink receives frames from a driver. Send returns an error once the
// consumer is gone; the driver treats that as normal termination.
type Sink interface {
	Send(Frame) error
}

// Stream is a channel-backed Sink. The consumer reads Frames and calls Close
// to disconnect.
type Stream struct {
	frames chan Frame
	done   chan struct{}
	once   sync.Once
}

func NewStream(buffer int) *Stream {
	if buffer < 0 {
		buffer = 0
	}
	return &Stream{
		frames: make(chan Frame, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Stream) Send(f Frame) error {
	select {
	case <-s.done:
		return ErrDisconnected
	default:
	}

	select {
	case s.frames <- f:
		return nil
	case <-s.done:
		return ErrDisconnected
	}
}

// Frames is never closed; select on Done as well when the producer may stop.
func (s *Stream) Frames() <-chan Frame { return s.frames }

func (s *Stream) Done() <-chan struct{} { return s.done }

// Close disconnects the consumer. Safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}
