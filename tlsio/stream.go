package tlsio

import (
	"errors"
	"io"
	"sync/atomic"
)

// flusher is implemented by buffered transports (e.g. bufio.Writer).
type flusher interface {
	Flush() error
}

// Stream presents a TLS session as a plain byte stream. It owns its
// transport and engine for the lifetime of one logical connection and is
// intended for use by a single goroutine at a time. Close is the one
// exception: it may be called from another goroutine to abort a blocked
// Read, provided the transport's own Close unblocks its reads.
type Stream struct {
	tr  io.ReadWriter
	eng Engine

	eof    bool // transport reached EOF
	ready  bool // handshake completed successfully; never reverts
	closed atomic.Bool
}

// NewStream wraps tr and eng in a not-yet-handshaken Stream. Callers
// normally go through Connect instead.
func NewStream(eng Engine, tr io.ReadWriter) *Stream {
	return &Stream{tr: tr, eng: eng}
}

// Read copies decrypted plaintext into p, pulling ciphertext from the
// transport as needed. It returns 0, io.EOF once the transport is
// exhausted and no buffered plaintext remains. A record or decryption
// failure is fatal and closes the Stream.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	for {
		n, err := s.eng.Read(p)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			s.Close()
			return n, err
		}
		if s.eof {
			return 0, io.EOF
		}
		m, rerr := s.eng.ReadCiphertext(s.tr)
		if rerr != nil {
			if rerr == io.EOF || errors.Is(rerr, io.ErrUnexpectedEOF) {
				// Drain whatever plaintext the engine still holds before
				// reporting end of stream.
				s.eof = true
				continue
			}
			s.Close()
			return 0, rerr
		}
		if m == 0 {
			s.eof = true
		}
	}
}

// Write encrypts p and drains the resulting ciphertext to the transport.
// It returns len(p) unless the transport genuinely fails; ciphertext not
// yet accepted by the transport stays pending in the engine.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	n, err := s.eng.Write(p)
	if err != nil {
		return n, err
	}
	if err := s.drain(); err != nil {
		return n, err
	}
	return n, nil
}

// Flush drains pending ciphertext and flushes the transport if it is
// buffered.
func (s *Stream) Flush() error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	if err := s.drain(); err != nil {
		return err
	}
	if f, ok := s.tr.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Ready reports whether the handshake has completed. Once true it stays
// true for the life of the Stream.
func (s *Stream) Ready() bool { return s.ready }

// Close tears down the engine and the transport, if it is closable.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.eng.Close()
	if c, ok := s.tr.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Stream) drain() error {
	for s.eng.WantsWrite() {
		if _, err := s.eng.WriteCiphertext(s.tr); err != nil {
			return err
		}
	}
	return nil
}

// handshake drives the engine to handshake completion: pending ciphertext
// is flushed to the peer first, then one transport read feeds the engine,
// until the engine reports it is done. EOF from the transport while still
// handshaking is fatal. Transport reads block, so a round that cannot
// move bytes suspends this goroutine rather than spinning.
func (s *Stream) handshake() error {
	for s.eng.Handshaking() {
		progress := false

		for s.eng.WantsWrite() {
			n, err := s.eng.WriteCiphertext(s.tr)
			if err != nil {
				return err
			}
			if n > 0 {
				progress = true
			}
		}
		if f, ok := s.tr.(flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
		if !s.eng.Handshaking() {
			break
		}

		if s.eng.WantsRead() {
			n, err := s.eng.ReadCiphertext(s.tr)
			if err != nil {
				if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
					return ErrHandshakeEOF
				}
				return err
			}
			if n == 0 {
				return ErrHandshakeEOF
			}
			progress = true
		}

		if !progress {
			if !s.eng.Handshaking() {
				// Completed while we were waiting on WantsRead.
				continue
			}
			if s.eng.WantsWrite() {
				// A flight appeared while the engine settled; write it
				// out on the next round instead of declaring a stall.
				continue
			}
			if err := s.eng.Err(); err != nil {
				return err
			}
			return ErrStalled
		}
	}

	// The final flight may still be pending when the engine flips to done
	// (TLS 1.3 clients finish before the server confirms).
	if err := s.drain(); err != nil {
		return err
	}
	if f, ok := s.tr.(flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if err := s.eng.Err(); err != nil {
		return err
	}
	s.ready = true
	return nil
}
