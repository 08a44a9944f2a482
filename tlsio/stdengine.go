package tlsio

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// errEngineWouldBlock is surfaced by the internal wire when a read finds
// no ciphertext in non-blocking mode. It satisfies net.Error with
// Timeout() == true, which crypto/tls treats as a temporary condition
// that leaves the connection usable.
type wouldBlockError struct{}

func (wouldBlockError) Error() string   { return "tlsio: wire would block" }
func (wouldBlockError) Timeout() bool   { return true }
func (wouldBlockError) Temporary() bool { return true }

var errEngineWouldBlock = wouldBlockError{}

// wireAddr is the synthetic address of the in-memory engine wire.
type wireAddr struct{}

func (wireAddr) Network() string { return "tlsio" }
func (wireAddr) String() string  { return "engine-wire" }

// engineWire is the in-memory duplex between crypto/tls and the engine's
// ciphertext buffers. crypto/tls reads peer ciphertext out of in and
// writes its own records into out; the StdEngine moves bytes between
// these buffers and the real transport.
//
// While the handshake goroutine is running, reads on an empty in buffer
// block on the condition variable; afterwards they fail with a
// timeout-class error so plaintext I/O can run non-blocking on the
// caller's goroutine.
type engineWire struct {
	mu   sync.Mutex
	cond *sync.Cond

	in  []byte
	out []byte

	inClosed      bool
	readerWaiting bool
	nonblock      bool
}

func newEngineWire() *engineWire {
	w := &engineWire{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *engineWire) Read(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.in) == 0 {
		if w.inClosed {
			return 0, io.EOF
		}
		if w.nonblock {
			return 0, errEngineWouldBlock
		}
		w.readerWaiting = true
		w.cond.Broadcast()
		w.cond.Wait()
	}
	w.readerWaiting = false
	n := copy(p, w.in)
	w.in = w.in[n:]
	return n, nil
}

func (w *engineWire) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out = append(w.out, p...)
	w.cond.Broadcast()
	return len(p), nil
}

func (w *engineWire) feed(p []byte) {
	w.mu.Lock()
	w.in = append(w.in, p...)
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *engineWire) closeIn() {
	w.mu.Lock()
	w.inClosed = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *engineWire) setNonblock() {
	w.mu.Lock()
	w.nonblock = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *engineWire) Close() error                       { w.closeIn(); return nil }
func (w *engineWire) LocalAddr() net.Addr                { return wireAddr{} }
func (w *engineWire) RemoteAddr() net.Addr               { return wireAddr{} }
func (w *engineWire) SetDeadline(t time.Time) error      { return nil }
func (w *engineWire) SetReadDeadline(t time.Time) error  { return nil }
func (w *engineWire) SetWriteDeadline(t time.Time) error { return nil }

// StdEngine implements Engine on top of crypto/tls. The tls.Conn runs
// over the in-memory wire; the client handshake is driven on an
// engine-owned goroutine and completes as the Stream adapter shuttles
// ciphertext between the wire and the transport. After the handshake,
// plaintext Read/Write run synchronously on the caller's goroutine.
type StdEngine struct {
	conn *tls.Conn
	wire *engineWire

	hsDone chan struct{}
	hsErr  error // write-once before hsDone closes

	scratch []byte
}

// NewStdEngine starts a client-side TLS engine with cfg. The returned
// engine immediately begins its handshake internally; it makes no
// progress until ciphertext is moved by a Stream.
func NewStdEngine(cfg *tls.Config) *StdEngine {
	wire := newEngineWire()
	e := &StdEngine{
		conn:    tls.Client(wire, cfg),
		wire:    wire,
		hsDone:  make(chan struct{}),
		scratch: make([]byte, 18*1024), // a TLS record plus header overhead
	}
	go e.runHandshake()
	return e
}

func (e *StdEngine) runHandshake() {
	err := e.conn.Handshake()
	e.hsErr = err
	close(e.hsDone)
	// The broadcast inside setNonblock wakes WantsRead waiters after
	// Handshaking() is already observable as false.
	e.wire.setNonblock()
}

func (e *StdEngine) Handshaking() bool {
	select {
	case <-e.hsDone:
		return false
	default:
		return true
	}
}

// WantsRead reports whether the engine is blocked waiting for peer
// ciphertext. While handshaking it waits for the handshake goroutine to
// settle into either wanting input or having output, so callers never
// observe a transient "wants nothing" state.
func (e *StdEngine) WantsRead() bool {
	w := e.wire
	w.mu.Lock()
	defer w.mu.Unlock()
	for e.Handshaking() && len(w.out) == 0 && !(w.readerWaiting && len(w.in) == 0) {
		w.cond.Wait()
	}
	return w.readerWaiting && len(w.in) == 0 && !w.inClosed
}

func (e *StdEngine) WantsWrite() bool {
	w := e.wire
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.out) > 0
}

func (e *StdEngine) ReadCiphertext(r io.Reader) (int, error) {
	n, err := r.Read(e.scratch)
	if n > 0 {
		e.wire.feed(e.scratch[:n])
	}
	if err == io.EOF || (err == nil && n == 0) {
		e.wire.closeIn()
	}
	return n, err
}

func (e *StdEngine) WriteCiphertext(wr io.Writer) (int, error) {
	w := e.wire
	w.mu.Lock()
	data := w.out
	w.out = nil
	w.mu.Unlock()
	if len(data) == 0 {
		return 0, nil
	}
	n, err := wr.Write(data)
	if n < len(data) {
		// Preserve the unaccepted tail ahead of anything queued since.
		w.mu.Lock()
		w.out = append(data[n:], w.out...)
		w.mu.Unlock()
	}
	return n, err
}

func (e *StdEngine) Read(p []byte) (int, error) {
	n, err := e.conn.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, ErrWouldBlock
		}
		if errors.Is(err, errEngineWouldBlock) {
			return n, ErrWouldBlock
		}
	}
	return n, err
}

func (e *StdEngine) Write(p []byte) (int, error) {
	return e.conn.Write(p)
}

func (e *StdEngine) Err() error {
	select {
	case <-e.hsDone:
		return e.hsErr
	default:
		return nil
	}
}

// Close queues a close_notify alert for the peer and unblocks the
// handshake goroutine if it is still running.
func (e *StdEngine) Close() error {
	err := e.conn.Close()
	e.wire.closeIn()
	return err
}

// ConnectionState exposes the underlying TLS session details once the
// handshake has completed.
func (e *StdEngine) ConnectionState() tls.ConnectionState {
	return e.conn.ConnectionState()
}
