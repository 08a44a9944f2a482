package httpc

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Method is an HTTP request method.
type Method uint8

const (
	GET Method = iota
	PUT
	POST
	HEAD
	PATCH
	OPTIONS
	CONNECT
)

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case PUT:
		return "PUT"
	case POST:
		return "POST"
	case HEAD:
		return "HEAD"
	case PATCH:
		return "PATCH"
	case OPTIONS:
		return "OPTIONS"
	case CONNECT:
		return "CONNECT"
	default:
		return "GET"
	}
}

// Builder assembles one request. The zero value is not usable; start
// with NewRequest.
type Builder struct {
	method  Method
	route   string
	headers []kv
	body    []byte
}

type kv struct {
	name  string
	value string
}

// sortedKV flattens m into name-sorted pairs so headers derived from a
// map are emitted in a stable wire order.
func sortedKV(m map[string]string) []kv {
	pairs := make([]kv, 0, len(m))
	for name, value := range m {
		pairs = append(pairs, kv{name, value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	return pairs
}

// NewRequest starts a request for the given method and route. The route
// must begin with "/".
func NewRequest(method Method, route string) *Builder {
	return &Builder{method: method, route: route}
}

// Header adds a header line. Later additions with the same name are
// sent as repeated lines, not merged.
func (b *Builder) Header(name, value string) *Builder {
	b.headers = append(b.headers, kv{name, value})
	return b
}

// Body sets the request body. A Content-Length header is emitted
// automatically.
func (b *Builder) Body(body []byte) *Builder {
	b.body = body
	return b
}

// build serializes the request against the owning client's host,
// user agent and default headers. Per-request headers win over
// defaults with the same name.
func (b *Builder) build(host, userAgent string, defaults []kv) []byte {
	route := b.route
	if route == "" {
		route = "/"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", b.method, route)
	fmt.Fprintf(&buf, "Host: %s\r\n", host)
	if userAgent != "" {
		fmt.Fprintf(&buf, "User-Agent: %s\r\n", userAgent)
	}
	fmt.Fprintf(&buf, "X-Request-ID: %s\r\n", uuid.NewString())
	for _, h := range defaults {
		if !hasHeader(b.headers, h.name) {
			fmt.Fprintf(&buf, "%s: %s\r\n", h.name, h.value)
		}
	}
	for _, h := range b.headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.name, h.value)
	}
	if len(b.body) > 0 {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(b.body))
	}
	buf.WriteString("\r\n")
	buf.Write(b.body)
	return buf.Bytes()
}

func hasHeader(hs []kv, name string) bool {
	for _, h := range hs {
		if strings.EqualFold(h.name, name) {
			return true
		}
	}
	return false
}
