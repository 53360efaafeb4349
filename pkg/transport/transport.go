// Package transport defines the duplex frame channel a session runs over.
// Transports carry opaque frames: they preserve frame boundaries and
// ordering and guarantee atomic frame writes, nothing more. Encoding and
// decoding of frames happens one level up, in pkg/serialize.
package transport

import "context"

// Conn is one established duplex frame channel. Send is safe for concurrent
// use; exactly one goroutine is expected to call Recv. Any error from Send
// or Recv, and any Recv after the peer closed, means the channel is dead.
type Conn interface {
    // Send writes one frame.
    Send(frame []byte) error
    // Recv blocks until the next frame arrives.
    Recv() ([]byte, error)
    Close() error
}

// Dialer establishes outbound connections for one transport kind.
type Dialer interface {
    Dial(ctx context.Context, address string) (Conn, error)
}
