package tlsio

import (
	"errors"
	"io"
)

var (
	// ErrWouldBlock reports that the engine has no plaintext buffered and
	// needs more ciphertext before it can produce any. It is a recoverable
	// condition, never a failure.
	ErrWouldBlock = errors.New("tlsio: operation would block")

	// ErrHandshakeDone is returned by Connecting.Await after the handshake
	// has already reached a terminal state.
	ErrHandshakeDone = errors.New("tlsio: handshake already completed")

	// ErrHandshakeEOF reports that the peer closed the transport while the
	// handshake was still in progress.
	ErrHandshakeEOF = errors.New("tlsio: connection closed during handshake")

	// ErrStalled reports an engine that is still handshaking but neither
	// wants ciphertext nor has any pending. A conforming engine never
	// settles into this state.
	ErrStalled = errors.New("tlsio: handshake made no progress")

	// ErrStreamClosed is returned for operations on a closed Stream.
	ErrStreamClosed = errors.New("tlsio: stream closed")
)

// Engine is a TLS protocol state machine decoupled from I/O. It consumes
// and emits raw TLS records through ReadCiphertext/WriteCiphertext and
// moves application plaintext through Read/Write. The Stream adapter owns
// all transport I/O; the engine never touches the network itself.
type Engine interface {
	// Handshaking reports whether the handshake is still in progress.
	// Once it returns false it never returns true again.
	Handshaking() bool

	// WantsRead reports whether the engine needs more ciphertext from the
	// peer before it can make progress.
	WantsRead() bool

	// WantsWrite reports whether the engine has ciphertext pending for
	// the peer.
	WantsWrite() bool

	// ReadCiphertext performs one read from r and ingests the bytes as
	// TLS records. It returns the number of ciphertext bytes consumed.
	// An error from r is returned as is; a record-processing failure is
	// fatal to the engine.
	ReadCiphertext(r io.Reader) (int, error)

	// WriteCiphertext writes pending ciphertext to w. Bytes not accepted
	// by w remain pending and are retried on the next call.
	WriteCiphertext(w io.Writer) (int, error)

	// Read copies decrypted plaintext into p. It returns ErrWouldBlock
	// when no plaintext is buffered. A decryption failure is fatal.
	Read(p []byte) (int, error)

	// Write encrypts p into pending ciphertext records.
	Write(p []byte) (int, error)

	// Err returns the engine's terminal error, if any. After the
	// handshake has finished it reports the handshake outcome.
	Err() error

	// Close tears the engine down, queueing a close notification for the
	// peer where the protocol calls for one.
	Close() error
}
