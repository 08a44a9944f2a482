package httpc

import "errors"

var (
	// ErrBadStatusLine reports a truncated or non-numeric status line.
	ErrBadStatusLine = errors.New("httpc: malformed status line")

	// ErrBadHeader reports a structurally invalid header line.
	ErrBadHeader = errors.New("httpc: malformed header line")

	// ErrBadContentLength reports a Content-Length value that does not
	// parse as an unsigned integer. Fatal for the response carrying it.
	ErrBadContentLength = errors.New("httpc: bad Content-Length")

	// ErrBadChunk reports a malformed chunked-transfer record.
	ErrBadChunk = errors.New("httpc: invalid chunk format")

	// ErrNoFraming reports a response body with neither a Content-Length
	// nor chunked transfer encoding to delimit it.
	ErrNoFraming = errors.New("httpc: response has no body framing")

	// ErrHeaderTooLarge reports a header section past the decoder limit.
	ErrHeaderTooLarge = errors.New("httpc: header too large")

	// ErrConnClosed reports a request submitted to a connection that has
	// already failed.
	ErrConnClosed = errors.New("httpc: connection closed")

	// ErrShutdown reports a request abandoned because the client was
	// shut down.
	ErrShutdown = errors.New("httpc: client shut down")
)
