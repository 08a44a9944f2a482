package httpc

import (
	"strings"
	"testing"
)

func buildLines(t *testing.T, b *Builder, host, ua string, defaults []kv) []string {
	t.Helper()
	raw := string(b.build(host, ua, defaults))
	head, _, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator in %q", raw)
	}
	return strings.Split(head, "\r\n")
}

func TestBuild_RequestLine(t *testing.T) {
	tests := []struct {
		b    *Builder
		want string
	}{
		{NewRequest(GET, "/"), "GET / HTTP/1.1"},
		{NewRequest(POST, "/api/v1/items"), "POST /api/v1/items HTTP/1.1"},
		{NewRequest(HEAD, ""), "HEAD / HTTP/1.1"},
	}
	for _, tt := range tests {
		lines := buildLines(t, tt.b, "example.com", "", nil)
		if lines[0] != tt.want {
			t.Errorf("request line = %q, want %q", lines[0], tt.want)
		}
	}
}

func TestBuild_StandardHeaders(t *testing.T) {
	lines := buildLines(t, NewRequest(GET, "/"), "example.com", "hfetch/1.0", nil)
	if lines[1] != "Host: example.com" {
		t.Errorf("Host line = %q", lines[1])
	}
	if lines[2] != "User-Agent: hfetch/1.0" {
		t.Errorf("User-Agent line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "X-Request-ID: ") {
		t.Errorf("X-Request-ID line = %q", lines[3])
	}
}

func TestBuild_Body(t *testing.T) {
	raw := string(NewRequest(POST, "/submit").Body([]byte(`{"a":1}`)).build("h", "", nil))
	if !strings.Contains(raw, "Content-Length: 7\r\n") {
		t.Errorf("missing Content-Length in %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\n"+`{"a":1}`) {
		t.Errorf("body not trailing in %q", raw)
	}
}

func TestBuild_DefaultHeadersOverridden(t *testing.T) {
	defaults := []kv{{"Accept", "text/html"}, {"X-Env", "prod"}}
	b := NewRequest(GET, "/").Header("accept", "application/json")
	raw := string(b.build("h", "", defaults))
	if strings.Contains(raw, "Accept: text/html") {
		t.Error("default Accept not overridden")
	}
	if !strings.Contains(raw, "accept: application/json\r\n") {
		t.Error("request Accept missing")
	}
	if !strings.Contains(raw, "X-Env: prod\r\n") {
		t.Error("untouched default missing")
	}
}

func TestBuild_DefaultHeaderOrderIsStable(t *testing.T) {
	m := map[string]string{
		"X-Env":           "prod",
		"Accept":          "application/json",
		"X-Tenant":        "acme",
		"Accept-Language": "en",
	}
	want := string(NewRequest(GET, "/").build("h", "", sortedKV(m)))
	for i := 0; i < 20; i++ {
		got := string(NewRequest(GET, "/").build("h", "", sortedKV(m)))
		// Strip the per-request ID before comparing.
		if stripRequestID(got) != stripRequestID(want) {
			t.Fatalf("header order varies:\n%q\nvs\n%q", got, want)
		}
	}
	if !strings.Contains(want, "Accept: application/json\r\nAccept-Language: en\r\nX-Env: prod\r\nX-Tenant: acme\r\n") {
		t.Fatalf("defaults not name-sorted in %q", want)
	}
}

func stripRequestID(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\r\n") {
		if strings.HasPrefix(line, "X-Request-ID: ") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\r\n")
}

func TestMethodString(t *testing.T) {
	tests := []struct {
		m    Method
		want string
	}{
		{GET, "GET"}, {PUT, "PUT"}, {POST, "POST"}, {HEAD, "HEAD"},
		{PATCH, "PATCH"}, {OPTIONS, "OPTIONS"}, {CONNECT, "CONNECT"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
