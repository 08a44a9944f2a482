package httpc

import (
	"errors"
	"io"
	"sync"
	"time"

	"dqx0.com/go/hclient/internal/obs"
)

// stream is the byte transport the connection actor drives. tlsio.Stream
// satisfies it; tests substitute in-memory fakes.
type stream interface {
	io.ReadWriter
	Flush() error
	Close() error
}

// Result is the outcome of one executed request.
type Result struct {
	Response *Response
	Err      error
}

// envelope pairs a serialized request with its completion channel. done
// is buffered so the actor never blocks on a caller that stopped
// listening.
type envelope struct {
	data []byte
	done chan Result
}

func newEnvelope(data []byte) *envelope {
	return &envelope{data: data, done: make(chan Result, 1)}
}

// conn is the connection actor. It owns the stream and the decoder and
// is the only goroutine touching them; callers hand it envelopes
// through the mailbox and requests are served strictly in arrival
// order, one at a time.
type conn struct {
	stream   stream
	dec      *Decoder
	mailbox  chan *envelope
	shutdown chan struct{}
	stopped  chan struct{}

	// mu orders submissions against stop: once stopping is set no new
	// envelope enters the mailbox, so the final drain cannot strand one.
	mu       sync.Mutex
	stopping bool

	log     obs.Logger
	meter   obs.Meter
	readBuf []byte
}

func newConn(s stream, log obs.Logger, meter obs.Meter) *conn {
	return &conn{
		stream:   s,
		dec:      NewDecoder(),
		mailbox:  make(chan *envelope, 16),
		shutdown: make(chan struct{}),
		stopped:  make(chan struct{}),
		log:      log,
		meter:    meter,
		readBuf:  make([]byte, 16<<10),
	}
}

func (c *conn) run() {
	defer close(c.stopped)
	defer c.stream.Close()
	for {
		// Shutdown wins over queued work.
		select {
		case <-c.shutdown:
			c.drainMailbox(ErrShutdown)
			return
		default:
		}
		select {
		case <-c.shutdown:
			c.drainMailbox(ErrShutdown)
			return
		case env := <-c.mailbox:
			res, closing := c.serve(env.data)
			if res.Err != nil && c.stopRequested() {
				// The failure was induced by stop closing the stream;
				// report the shutdown, not the read error.
				res = Result{Err: ErrShutdown}
			}
			env.done <- res
			if errors.Is(res.Err, ErrShutdown) {
				c.drainMailbox(ErrShutdown)
				return
			}
			if res.Err != nil {
				c.dead(res.Err)
				return
			}
			if closing {
				c.dead(ErrConnClosed)
				return
			}
		}
	}
}

// serve writes one request and reads until the decoder completes a
// response. Any transport or parse error is fatal to the connection:
// after a failed parse there is no way back to a record boundary.
// closing reports a "Connection: close" response, after which the
// connection must not be reused.
func (c *conn) serve(data []byte) (res Result, closing bool) {
	start := time.Now()
	if _, err := c.stream.Write(data); err != nil {
		return Result{Err: err}, false
	}
	if err := c.stream.Flush(); err != nil {
		return Result{Err: err}, false
	}
	for !c.dec.Finished() {
		n, err := c.stream.Read(c.readBuf)
		if n > 0 {
			if derr := c.dec.Decode(c.readBuf[:n]); derr != nil {
				c.meter.Counter("httpc_decode_errors", 1)
				return Result{Err: derr}, false
			}
		}
		if err != nil {
			if err == io.EOF && c.dec.Finished() {
				break
			}
			return Result{Err: err}, false
		}
	}
	closing = c.dec.ConnState() == ConnClose
	resp, _ := c.dec.Take()
	c.meter.Counter("httpc_requests", 1)
	c.meter.Histogram("httpc_request_seconds", time.Since(start).Seconds())
	c.log.Logf(obs.Debug, "request served: status=%d elapsed=%s", resp.Code, time.Since(start))
	return Result{Response: resp}, closing
}

// dead answers every further envelope with the original cause until the
// client shuts the actor down.
func (c *conn) dead(cause error) {
	c.log.Logf(obs.Warn, "connection dead: %v", cause)
	for {
		select {
		case <-c.shutdown:
			c.drainMailbox(ErrConnClosed)
			return
		case env := <-c.mailbox:
			env.done <- Result{Err: ErrConnClosed}
		}
	}
}

// drainMailbox fails everything still queued at shutdown.
func (c *conn) drainMailbox(err error) {
	for {
		select {
		case env := <-c.mailbox:
			env.done <- Result{Err: err}
		default:
			return
		}
	}
}

// submit queues an envelope, failing fast when the actor is shutting
// down. Enqueueing under mu guarantees every accepted envelope is
// visible to the actor's final drain.
func (c *conn) submit(env *envelope) {
	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		env.done <- Result{Err: ErrShutdown}
		return
	}
	c.mailbox <- env
	c.mu.Unlock()
}

func (c *conn) stopRequested() bool {
	select {
	case <-c.shutdown:
		return true
	default:
		return false
	}
}

// stop signals the actor and closes the stream so a read blocked on an
// unresponsive peer unblocks; the in-flight envelope is answered with
// ErrShutdown, queued ones are drained. Safe to call more than once;
// returns after the actor has exited.
func (c *conn) stop() {
	c.mu.Lock()
	first := !c.stopping
	c.stopping = true
	c.mu.Unlock()
	if first {
		close(c.shutdown)
		c.stream.Close()
	}
	<-c.stopped
}
