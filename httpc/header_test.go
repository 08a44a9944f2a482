package httpc

import (
	"errors"
	"testing"
)

func TestParseHeaderLine(t *testing.T) {
	tests := []struct {
		line string
		kind HeaderKind
		val  string
	}{
		{"Content-Type: application/json", HdrContentType, "application/json"},
		{"content-length: 42", HdrContentLength, "42"},
		{"Transfer-Encoding: chunked", HdrTransferEncoding, "chunked"},
		{"Connection: close", HdrConnection, "close"},
		{"X-Custom: anything", HdrOther, "anything"},
		{"Server:  spaced  ", HdrOther, "spaced"},
	}
	for _, tt := range tests {
		h, err := parseHeaderLine(tt.line)
		if err != nil {
			t.Errorf("%q: %v", tt.line, err)
			continue
		}
		if h.Kind != tt.kind {
			t.Errorf("%q: Kind = %d, want %d", tt.line, h.Kind, tt.kind)
		}
		if h.Value != tt.val {
			t.Errorf("%q: Value = %q, want %q", tt.line, h.Value, tt.val)
		}
	}
}

func TestParseHeaderLine_Invalid(t *testing.T) {
	for _, line := range []string{
		"no colon here",
		": empty name",
		"Bad Name: value",
	} {
		if _, err := parseHeaderLine(line); !errors.Is(err, ErrBadHeader) {
			t.Errorf("%q: err = %v, want ErrBadHeader", line, err)
		}
	}
}

func TestParseHeaderLine_ContentLength(t *testing.T) {
	h, err := parseHeaderLine("Content-Length: 1024")
	if err != nil {
		t.Fatal(err)
	}
	if h.Length != 1024 {
		t.Errorf("Length = %d, want 1024", h.Length)
	}
	for _, line := range []string{
		"Content-Length: -1",
		"Content-Length: 12abc",
		"Content-Length: 99999999999999999999",
	} {
		if _, err := parseHeaderLine(line); !errors.Is(err, ErrBadContentLength) {
			t.Errorf("%q: err = %v, want ErrBadContentLength", line, err)
		}
	}
}

func TestRecognizeMime(t *testing.T) {
	tests := []struct {
		in   string
		want MimeType
	}{
		{"application/json", MimeAppJSON},
		{"application/json; charset=utf-8", MimeAppJSON},
		{"TEXT/PLAIN", MimeTextPlain},
		{"text/html", MimeTextHTML},
		{"image/png", MimeImagePNG},
		{"application/octet-stream", MimeUnimplemented},
	}
	for _, tt := range tests {
		if got := recognizeMime(tt.in); got != tt.want {
			t.Errorf("recognizeMime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRecognizeTransferEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    TransferEncoding
		chunked bool
	}{
		{"chunked", EncodingChunked, true},
		{"gzip", EncodingGzip, false},
		{"gzip, chunked", EncodingGzipChunked, true},
		{"deflate, chunked", EncodingDeflateChunked, true},
		{"br", EncodingUnknown, false},
	}
	for _, tt := range tests {
		got := recognizeTransferEncoding(tt.in)
		if got != tt.want {
			t.Errorf("recognizeTransferEncoding(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.Chunked() != tt.chunked {
			t.Errorf("%q: Chunked() = %v, want %v", tt.in, got.Chunked(), tt.chunked)
		}
	}
}

func TestResponseClass(t *testing.T) {
	tests := []struct {
		code int
		want Class
	}{
		{100, Informational},
		{200, Successful},
		{301, Redirection},
		{404, ClientError},
		{503, ServerError},
		{99, UnknownClass},
		{600, UnknownClass},
	}
	for _, tt := range tests {
		r := Response{Code: tt.code}
		if got := r.Class(); got != tt.want {
			t.Errorf("Class(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
