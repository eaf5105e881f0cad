// Package transport provides pluggable delivery of realtime control-channel
// frames.
//
// The Transport interface carries ordered JSON frames in both directions
// while hiding the backend (WebSocket data channel, in-memory pipe). Frames
// are opaque at this layer; classification happens in package frame.
package transport

import (
	"context"
	"errors"

	"github.com/voxtlabs/voxtrade/frame"
)

// Common errors.
var (
	ErrClosed = errors.New("transport closed")
)

// Transport provides bidirectional frame passing.
type Transport interface {
	// Recv returns the channel for incoming frames, in delivery order.
	// The channel is closed when the transport shuts down.
	Recv() <-chan *frame.Frame

	// Send queues a frame for delivery.
	// Returns ErrClosed if the transport is closed.
	Send(f *frame.Frame) error

	// Run starts the transport, blocking until ctx is cancelled or the
	// connection fails. Returns nil on graceful shutdown.
	Run(ctx context.Context) error

	// Close initiates graceful shutdown, draining pending sends.
	Close() error
}

// Config holds common transport configuration.
type Config struct {
	// RecvBufferSize is the size of the receive channel buffer.
	// Default: 100
	RecvBufferSize int

	// SendBufferSize is the size of the internal send buffer.
	// Default: 100
	SendBufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecvBufferSize: 100,
		SendBufferSize: 100,
	}
}
