package httpc

import (
	"errors"
	"strings"
	"testing"
)

func decodeAll(t *testing.T, d *Decoder, raw string) error {
	t.Helper()
	return d.Decode([]byte(raw))
}

func mustTake(t *testing.T, d *Decoder) *Response {
	t.Helper()
	if !d.Finished() {
		t.Fatal("decoder not finished")
	}
	resp, ok := d.Take()
	if !ok {
		t.Fatal("Take returned false on finished decoder")
	}
	return resp
}

func TestDecoder_ContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello"
	d := NewDecoder()
	if err := decodeAll(t, d, raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	resp := mustTake(t, d)
	if resp.Code != 200 {
		t.Errorf("Code = %d, want 200", resp.Code)
	}
	if string(resp.Content) != "hello" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello")
	}
	h, ok := resp.Header("content-type")
	if !ok || h.Value != "text/plain" {
		t.Errorf("Header(content-type) = %+v, %v", h, ok)
	}
}

func TestDecoder_FragmentationInvariance(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 12\r\nX-Test: yes\r\n\r\nhello world!"
	for cut := 1; cut < len(raw); cut++ {
		d := NewDecoder()
		if err := decodeAll(t, d, raw[:cut]); err != nil {
			t.Fatalf("cut=%d first Decode: %v", cut, err)
		}
		if err := decodeAll(t, d, raw[cut:]); err != nil {
			t.Fatalf("cut=%d second Decode: %v", cut, err)
		}
		resp := mustTake(t, d)
		if string(resp.Content) != "hello world!" {
			t.Fatalf("cut=%d Content = %q", cut, resp.Content)
		}
	}
}

func TestDecoder_Chunked(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n7\r\n, world\r\n0\r\n\r\n"
	for cut := 1; cut < len(raw); cut++ {
		d := NewDecoder()
		if err := decodeAll(t, d, raw[:cut]); err != nil {
			t.Fatalf("cut=%d first Decode: %v", cut, err)
		}
		if err := decodeAll(t, d, raw[cut:]); err != nil {
			t.Fatalf("cut=%d second Decode: %v", cut, err)
		}
		resp := mustTake(t, d)
		if string(resp.Content) != "hello, world" {
			t.Fatalf("cut=%d Content = %q", cut, resp.Content)
		}
	}
}

func TestDecoder_ChunkedExtensionsAndTrailers(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4;ext=1\r\ndata\r\n0\r\nExpires: never\r\n\r\n"
	d := NewDecoder()
	if err := decodeAll(t, d, raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	resp := mustTake(t, d)
	if string(resp.Content) != "data" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	raw := "HTTP/1.1 404 Not Found\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nabc\r\n0\r\n\r\n"
	d := NewDecoder()
	for i := 0; i < len(raw); i++ {
		if err := d.Decode([]byte{raw[i]}); err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
	}
	resp := mustTake(t, d)
	if resp.Code != 404 || string(resp.Content) != "abc" {
		t.Errorf("got %d %q", resp.Code, resp.Content)
	}
}

func TestDecoder_Pipelining(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\nabc"
	d := NewDecoder()
	for i := 0; i < 3; i++ {
		if err := decodeAll(t, d, raw); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		resp := mustTake(t, d)
		if string(resp.Content) != "abc" {
			t.Fatalf("round %d Content = %q", i, resp.Content)
		}
	}
}

func TestDecoder_BodylessStatuses(t *testing.T) {
	for _, code := range []string{"204 No Content", "304 Not Modified", "100 Continue"} {
		d := NewDecoder()
		raw := "HTTP/1.1 " + code + "\r\n\r\n"
		if err := decodeAll(t, d, raw); err != nil {
			t.Fatalf("%s: %v", code, err)
		}
		resp := mustTake(t, d)
		if len(resp.Content) != 0 {
			t.Errorf("%s: unexpected content %q", code, resp.Content)
		}
	}
}

func TestDecoder_NoFraming(t *testing.T) {
	d := NewDecoder()
	err := decodeAll(t, d, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n")
	if !errors.Is(err, ErrNoFraming) {
		t.Fatalf("err = %v, want ErrNoFraming", err)
	}
}

func TestDecoder_ErrorIsTerminal(t *testing.T) {
	d := NewDecoder()
	err := decodeAll(t, d, "HTTP/1.1 200 OK\r\nContent-Length: nope\r\n\r\n")
	if !errors.Is(err, ErrBadContentLength) {
		t.Fatalf("err = %v, want ErrBadContentLength", err)
	}
	if err2 := decodeAll(t, d, "more bytes"); !errors.Is(err2, ErrBadContentLength) {
		t.Fatalf("second Decode = %v, want stored error", err2)
	}
	if _, ok := d.Take(); ok {
		t.Error("Take succeeded on errored decoder")
	}
}

func TestDecoder_BadStatusLine(t *testing.T) {
	for _, raw := range []string{
		"HTP/1.1 200 OK\r\n\r\n",
		"HTTP/1.1 2x0 OK\r\n\r\n",
		"short\r\n\r\n",
	} {
		d := NewDecoder()
		if err := decodeAll(t, d, raw); !errors.Is(err, ErrBadStatusLine) {
			t.Errorf("%q: err = %v, want ErrBadStatusLine", raw, err)
		}
	}
}

func TestDecoder_BadHeaderLine(t *testing.T) {
	d := NewDecoder()
	err := decodeAll(t, d, "HTTP/1.1 200 OK\r\nno-colon-here\r\nContent-Length: 0\r\n\r\n")
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("err = %v, want ErrBadHeader", err)
	}
}

func TestDecoder_BadChunkSize(t *testing.T) {
	d := NewDecoder()
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n"
	if err := decodeAll(t, d, raw); !errors.Is(err, ErrBadChunk) {
		t.Fatalf("err = %v, want ErrBadChunk", err)
	}
}

func TestDecoder_HeaderTooLarge(t *testing.T) {
	d := NewDecoder()
	huge := "HTTP/1.1 200 OK\r\nX-Fill: " + strings.Repeat("a", maxHeaderBytes)
	if err := decodeAll(t, d, huge); !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err = %v, want ErrHeaderTooLarge", err)
	}
}

func TestDecoder_TrailingBytesIgnored(t *testing.T) {
	d := NewDecoder()
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nokEXTRA"
	if err := decodeAll(t, d, raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	resp := mustTake(t, d)
	if string(resp.Content) != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
}

func TestDecoder_ConnState(t *testing.T) {
	d := NewDecoder()
	raw := "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 0\r\n\r\n"
	if err := decodeAll(t, d, raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ConnState() != ConnClose {
		t.Errorf("ConnState = %v, want close", d.ConnState())
	}
}
