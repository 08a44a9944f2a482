package httpc

import "net/textproto"

// Class buckets a status code into its hundreds group.
type Class uint8

const (
	Informational Class = iota // 1xx
	Successful                 // 2xx
	Redirection                // 3xx
	ClientError                // 4xx
	ServerError                // 5xx
	UnknownClass
)

func (c Class) String() string {
	switch c {
	case Informational:
		return "informational"
	case Successful:
		return "successful"
	case Redirection:
		return "redirection"
	case ClientError:
		return "client error"
	case ServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// Response is one decoded HTTP/1.x response. It is immutable once the
// decoder hands it out: status code, headers in wire order, and the body
// bytes (nil when the response carried none).
type Response struct {
	Code    int
	Headers []Header
	Content []byte
}

// Class returns the status code class.
func (r *Response) Class() Class {
	switch {
	case r.Code < 100 || r.Code > 599:
		return UnknownClass
	case r.Code <= 199:
		return Informational
	case r.Code <= 299:
		return Successful
	case r.Code <= 399:
		return Redirection
	case r.Code <= 499:
		return ClientError
	default:
		return ServerError
	}
}

// Header returns the first header matching name (case-insensitive) and
// whether one was present.
func (r *Response) Header(name string) (Header, bool) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	for _, h := range r.Headers {
		if textproto.CanonicalMIMEHeaderKey(h.Name) == key {
			return h, true
		}
	}
	return Header{}, false
}
