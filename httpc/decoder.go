package httpc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// maxHeaderBytes bounds the buffered header section of one response.
const maxHeaderBytes = 64 << 10

type phase uint8

const (
	phaseHeaders phase = iota
	phaseContent
	phaseChunked
	phaseFinished
	phaseError
)

// chunkState is the sub-state within phaseChunked. Chunk records never
// align with delivery boundaries, so every position inside a record must
// be resumable.
type chunkState uint8

const (
	chunkSize chunkState = iota
	chunkData
	chunkDataCR
	chunkDataLF
	chunkTrailer
)

// Decoder incrementally parses one HTTP/1.x response from byte chunks
// delivered in arbitrary fragmentation. Decode is the only mutating
// entry point; once Finished reports true the owner must Take the
// Response, which resets the Decoder for the next response on the same
// connection.
type Decoder struct {
	phase    phase
	encoding TransferEncoding
	conn     ConnState

	head       []byte // header bytes until the terminating blank line
	content    []byte
	resp       *Response
	contentLen int // -1 until a Content-Length header is seen
	err        error

	cstate chunkState
	line   []byte // partial chunk-size or trailer line
	remain int    // bytes left in the current chunk
}

// NewDecoder returns a Decoder in the Headers phase.
func NewDecoder() *Decoder {
	return &Decoder{contentLen: -1}
}

// Finished reports whether a complete Response is ready to Take.
func (d *Decoder) Finished() bool { return d.phase == phaseFinished }

// ConnState returns the Connection header disposition of the response
// in progress, defaulting to keep-alive.
func (d *Decoder) ConnState() ConnState { return d.conn }

// Take hands out the completed Response and resets the Decoder to a
// fresh Headers phase. It returns false while decoding is in progress.
func (d *Decoder) Take() (*Response, bool) {
	if d.phase != phaseFinished {
		return nil, false
	}
	resp := d.resp
	if len(d.content) > 0 {
		resp.Content = d.content
	}
	*d = Decoder{contentLen: -1}
	return resp, true
}

// Decode consumes the next fragment of response bytes. Once the decoder
// has entered a terminal error state it keeps returning that error;
// bytes arriving after Finished are ignored until the owner resets via
// Take.
func (d *Decoder) Decode(p []byte) error {
	switch d.phase {
	case phaseError:
		return d.err
	case phaseFinished:
		return nil
	}

	if d.phase == phaseHeaders {
		rest, done, err := d.consumeHeaders(p)
		if err != nil {
			return d.fail(err)
		}
		if !done {
			return nil
		}
		p = rest
		if d.phase == phaseFinished || len(p) == 0 {
			return nil
		}
	}

	switch d.phase {
	case phaseChunked:
		return d.decodeChunked(p)
	default:
		return d.decodeContent(p)
	}
}

// consumeHeaders buffers bytes until the blank line ends the header
// section, then parses the status line and header lines and decides the
// body phase. It returns the unconsumed remainder once the section is
// complete.
func (d *Decoder) consumeHeaders(p []byte) (rest []byte, done bool, err error) {
	d.head = append(d.head, p...)
	end := bytes.Index(d.head, []byte("\r\n\r\n"))
	if end < 0 {
		if len(d.head) > maxHeaderBytes {
			return nil, false, ErrHeaderTooLarge
		}
		return nil, false, nil
	}
	block := d.head[:end]
	rest = d.head[end+4:]
	d.head = nil

	lines := strings.Split(string(block), "\r\n")
	code, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, false, err
	}

	headers := make([]Header, 0, len(lines)-1)
	for _, line := range lines[1:] {
		h, err := parseHeaderLine(line)
		if err != nil {
			return nil, false, err
		}
		switch h.Kind {
		case HdrContentLength:
			d.contentLen = h.Length
		case HdrTransferEncoding:
			d.encoding = h.Encoding
		case HdrConnection:
			d.conn = h.Conn
		}
		headers = append(headers, h)
	}
	d.resp = &Response{Code: code, Headers: headers}

	switch {
	case d.encoding.Chunked():
		d.phase = phaseChunked
		d.content = make([]byte, 0, 16<<10)
	case d.contentLen > 0:
		d.phase = phaseContent
		d.content = make([]byte, 0, d.contentLen)
	case d.contentLen == 0:
		d.phase = phaseFinished
	case bodylessCode(code):
		d.phase = phaseFinished
	default:
		// No Content-Length and no chunked framing: there is no reliable
		// end of body, so reject instead of guessing.
		return nil, false, fmt.Errorf("%w: status %d", ErrNoFraming, code)
	}
	return rest, true, nil
}

func (d *Decoder) decodeContent(p []byte) error {
	need := d.contentLen - len(d.content)
	if need < len(p) {
		// Anything past the declared length belongs to the next response
		// and is not ours to consume.
		p = p[:need]
	}
	d.content = append(d.content, p...)
	if len(d.content) == d.contentLen {
		d.phase = phaseFinished
	}
	return nil
}

func (d *Decoder) decodeChunked(p []byte) error {
	i := 0
	for i < len(p) {
		switch d.cstate {
		case chunkSize:
			j := bytes.IndexByte(p[i:], '\n')
			if j < 0 {
				d.line = append(d.line, p[i:]...)
				if len(d.line) > 32 {
					return d.fail(fmt.Errorf("%w: oversized length line", ErrBadChunk))
				}
				return nil
			}
			d.line = append(d.line, p[i:i+j]...)
			i += j + 1
			size, err := parseChunkSize(d.line)
			d.line = nil
			if err != nil {
				return d.fail(err)
			}
			if size == 0 {
				d.cstate = chunkTrailer
			} else {
				d.remain = size
				d.cstate = chunkData
			}
		case chunkData:
			take := len(p) - i
			if take > d.remain {
				take = d.remain
			}
			d.content = append(d.content, p[i:i+take]...)
			d.remain -= take
			i += take
			if d.remain == 0 {
				d.cstate = chunkDataCR
			}
		case chunkDataCR:
			if p[i] != '\r' {
				return d.fail(fmt.Errorf("%w: missing CR after chunk data", ErrBadChunk))
			}
			i++
			d.cstate = chunkDataLF
		case chunkDataLF:
			if p[i] != '\n' {
				return d.fail(fmt.Errorf("%w: missing LF after chunk data", ErrBadChunk))
			}
			i++
			d.cstate = chunkSize
		case chunkTrailer:
			j := bytes.IndexByte(p[i:], '\n')
			if j < 0 {
				d.line = append(d.line, p[i:]...)
				if len(d.line) > maxHeaderBytes {
					return d.fail(ErrHeaderTooLarge)
				}
				return nil
			}
			d.line = append(d.line, p[i:i+j]...)
			i += j + 1
			blank := len(bytes.TrimRight(d.line, "\r")) == 0
			d.line = nil
			if blank {
				d.phase = phaseFinished
				// Any remainder belongs to the next response.
				return nil
			}
			// Trailer headers are read and discarded.
		}
	}
	return nil
}

func (d *Decoder) fail(err error) error {
	d.phase = phaseError
	d.err = err
	d.head = nil
	d.content = nil
	d.resp = nil
	return err
}

// parseStatusLine extracts the three status digits at their fixed offset
// in "HTTP/1.x NNN reason".
func parseStatusLine(line string) (int, error) {
	if len(line) < 12 || !strings.HasPrefix(line, "HTTP/1.") {
		return 0, fmt.Errorf("%w: %q", ErrBadStatusLine, line)
	}
	code, err := strconv.Atoi(line[9:12])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadStatusLine, line)
	}
	return code, nil
}

func parseChunkSize(line []byte) (int, error) {
	s := string(bytes.TrimRight(line, "\r"))
	// Chunk extensions are permitted but carry nothing we act on.
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty length line", ErrBadChunk)
	}
	n, err := strconv.ParseUint(s, 16, 31)
	if err != nil {
		return 0, fmt.Errorf("%w: bad hex length %q", ErrBadChunk, s)
	}
	return int(n), nil
}

// bodylessCode reports status codes that never carry a body.
func bodylessCode(code int) bool {
	return (code >= 100 && code <= 199) || code == 204 || code == 304
}
