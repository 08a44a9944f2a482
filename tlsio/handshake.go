package tlsio

import (
	"context"
	"io"
	"sync"
	"time"
)

// deadliner is satisfied by net.Conn and net.Pipe ends.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// Connecting is a one-shot handshake operation wrapping a not-yet-ready
// Stream. Await drives the handshake to a terminal result exactly once;
// calling it again afterwards is a usage error and fails fast.
type Connecting struct {
	mu   sync.Mutex
	s    *Stream
	done bool
}

// Connect pairs eng with tr and returns the pending handshake.
func Connect(eng Engine, tr io.ReadWriter) *Connecting {
	return &Connecting{s: NewStream(eng, tr)}
}

// Await runs the handshake and yields the ready Stream. The context
// deadline is propagated to the transport when it supports deadlines.
// On failure the Stream is closed and unusable.
func (c *Connecting) Await(ctx context.Context) (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return nil, ErrHandshakeDone
	}
	c.done = true

	if dl, ok := ctx.Deadline(); ok {
		if d, ok := c.s.tr.(deadliner); ok {
			_ = d.SetDeadline(dl)
			defer func() { _ = d.SetDeadline(time.Time{}) }()
		}
	}

	if err := c.s.handshake(); err != nil {
		_ = c.s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return c.s, nil
}
