package transport

import (
	"context"
	"sync"

	"github.com/voxtlabs/voxtrade/frame"
)

// PipeTransport is an in-memory Transport end. Useful for testing and
// single-process scenarios where both sides of the control channel live in
// the same binary.
type PipeTransport struct {
	recv <-chan *frame.Frame
	send chan<- *frame.Frame

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Pipe creates two connected in-memory transports. Frames sent on one end
// arrive on the other, in order.
func Pipe(cfg Config) (*PipeTransport, *PipeTransport) {
	if cfg.RecvBufferSize <= 0 {
		cfg.RecvBufferSize = DefaultConfig().RecvBufferSize
	}

	ab := make(chan *frame.Frame, cfg.RecvBufferSize)
	ba := make(chan *frame.Frame, cfg.RecvBufferSize)

	a := &PipeTransport{recv: ba, send: ab, done: make(chan struct{})}
	b := &PipeTransport{recv: ab, send: ba, done: make(chan struct{})}
	return a, b
}

// Recv returns the channel for incoming frames.
func (t *PipeTransport) Recv() <-chan *frame.Frame {
	return t.recv
}

// Send delivers a frame to the peer end.
func (t *PipeTransport) Send(f *frame.Frame) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	select {
	case t.send <- f:
		return nil
	case <-t.done:
		return ErrClosed
	}
}

// Run blocks until the context ends; the pipe needs no pump goroutines.
func (t *PipeTransport) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		t.Close()
		return ctx.Err()
	case <-t.done:
		return nil
	}
}

// Close shuts down this end. The peer observes a closed receive channel.
func (t *PipeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	close(t.send)
	return nil
}
