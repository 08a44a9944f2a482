package httpc

import (
	"fmt"
	"net/textproto"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// MimeType is the closed set of recognized Content-Type values.
// Anything else maps to MimeUnimplemented; the raw value stays on the
// Header either way.
type MimeType uint8

const (
	MimeUnimplemented MimeType = iota
	MimeAppJSON
	MimeTextPlain
	MimeTextHTML
	MimeImagePNG
	MimeImageJPEG
	MimeImageGIF
)

func (m MimeType) String() string {
	switch m {
	case MimeAppJSON:
		return "application/json"
	case MimeTextPlain:
		return "text/plain"
	case MimeTextHTML:
		return "text/html"
	case MimeImagePNG:
		return "image/png"
	case MimeImageJPEG:
		return "image/jpeg"
	case MimeImageGIF:
		return "image/gif"
	default:
		return "unimplemented"
	}
}

func recognizeMime(v string) MimeType {
	// Parameters (charset etc.) do not affect recognition.
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "application/json":
		return MimeAppJSON
	case "text/plain":
		return MimeTextPlain
	case "text/html":
		return MimeTextHTML
	case "image/png":
		return MimeImagePNG
	case "image/jpeg", "image/jpg":
		return MimeImageJPEG
	case "image/gif":
		return MimeImageGIF
	default:
		return MimeUnimplemented
	}
}

// TransferEncoding is the recognized set of Transfer-Encoding values.
// Only chunked framing is decoded; the compression variants are
// recognized but passed through untransformed.
type TransferEncoding uint8

const (
	EncodingNone TransferEncoding = iota
	EncodingGzip
	EncodingChunked
	EncodingDeflate
	EncodingGzipChunked
	EncodingDeflateChunked
	EncodingUnknown
)

func (t TransferEncoding) String() string {
	switch t {
	case EncodingNone:
		return "none"
	case EncodingGzip:
		return "gzip"
	case EncodingChunked:
		return "chunked"
	case EncodingDeflate:
		return "deflate"
	case EncodingGzipChunked:
		return "gzip, chunked"
	case EncodingDeflateChunked:
		return "deflate, chunked"
	default:
		return "unknown"
	}
}

// Chunked reports whether the encoding includes chunked framing.
func (t TransferEncoding) Chunked() bool {
	return t == EncodingChunked || t == EncodingGzipChunked || t == EncodingDeflateChunked
}

func recognizeTransferEncoding(v string) TransferEncoding {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "gzip":
		return EncodingGzip
	case "chunked":
		return EncodingChunked
	case "deflate":
		return EncodingDeflate
	case "gzip, chunked", "chunked, gzip":
		return EncodingGzipChunked
	case "deflate, chunked", "chunked, deflate":
		return EncodingDeflateChunked
	default:
		return EncodingUnknown
	}
}

// ConnState is the Connection header value. Anything other than "close"
// falls back to keep-alive.
type ConnState uint8

const (
	ConnKeepAlive ConnState = iota
	ConnClose
)

func (c ConnState) String() string {
	if c == ConnClose {
		return "close"
	}
	return "keep-alive"
}

func recognizeConnState(v string) ConnState {
	if strings.EqualFold(strings.TrimSpace(v), "close") {
		return ConnClose
	}
	return ConnKeepAlive
}

// HeaderKind discriminates the recognized header variants. HdrOther is
// the fallback carrying an arbitrary name/value pair.
type HeaderKind uint8

const (
	HdrOther HeaderKind = iota
	HdrContentLength
	HdrContentType
	HdrContentEncoding
	HdrContentLanguage
	HdrTransferEncoding
	HdrConnection
)

// Header is one parsed response header. Name and Value always hold the
// raw pair; the typed fields are populated according to Kind.
type Header struct {
	Kind  HeaderKind
	Name  string
	Value string

	Length   int              // HdrContentLength
	Mime     MimeType         // HdrContentType
	Encoding TransferEncoding // HdrTransferEncoding
	Conn     ConnState        // HdrConnection
}

// parseHeaderLine parses one "Name: value" line. Structurally invalid
// lines are errors rather than being silently skipped, so a corrupt
// header section can never desynchronize body parsing.
func parseHeaderLine(line string) (Header, error) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return Header{}, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	name := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	if !httpguts.ValidHeaderFieldName(name) {
		return Header{}, fmt.Errorf("%w: invalid name %q", ErrBadHeader, name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return Header{}, fmt.Errorf("%w: invalid value for %q", ErrBadHeader, name)
	}

	h := Header{Kind: HdrOther, Name: name, Value: value}
	switch textproto.CanonicalMIMEHeaderKey(name) {
	case "Content-Length":
		n, err := strconv.ParseUint(value, 10, 31)
		if err != nil {
			return Header{}, fmt.Errorf("%w: %q", ErrBadContentLength, value)
		}
		h.Kind = HdrContentLength
		h.Length = int(n)
	case "Content-Type":
		h.Kind = HdrContentType
		h.Mime = recognizeMime(value)
	case "Content-Encoding":
		h.Kind = HdrContentEncoding
	case "Content-Language":
		h.Kind = HdrContentLanguage
	case "Transfer-Encoding":
		h.Kind = HdrTransferEncoding
		h.Encoding = recognizeTransferEncoding(value)
	case "Connection":
		h.Kind = HdrConnection
		h.Conn = recognizeConnState(value)
	}
	return h, nil
}
