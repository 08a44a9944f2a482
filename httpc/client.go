package httpc

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"

	"dqx0.com/go/hclient/internal/obs"
	"dqx0.com/go/hclient/tlsio"
)

// Option configures a Client at Connect time.
type Option func(*options)

type options struct {
	tlsConfig   *tls.Config
	dialTimeout time.Duration
	log         obs.Logger
	meter       obs.Meter
}

// WithTLSConfig overrides the TLS configuration. ServerName is filled
// in from the host when empty.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithDialTimeout bounds the TCP dial and the TLS handshake together.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l obs.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMeter sets the client meter.
func WithMeter(m obs.Meter) Option {
	return func(o *options) { o.meter = m }
}

// Client is an HTTPS client bound to a single host. All requests issued
// through it are multiplexed onto one TLS connection and answered in
// the order they were submitted.
type Client struct {
	host      string
	userAgent string
	defaults  []kv

	conn *conn
}

// Connect dials host on port 443 (unless the host carries an explicit
// port), performs the TLS handshake, and starts the connection actor.
// defaultHeaders are sent with every request unless the request sets a
// header of the same name.
func Connect(ctx context.Context, host, userAgent string, defaultHeaders map[string]string, opts ...Option) (*Client, error) {
	o := options{
		dialTimeout: 30 * time.Second,
		log:         obs.NopLogger{},
		meter:       obs.NopMeter{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	hostPort := host
	if !strings.Contains(host, ":") {
		hostPort = net.JoinHostPort(host, "443")
	}
	serverName, _, err := net.SplitHostPort(hostPort)
	if err != nil {
		serverName = host
	}

	dialCtx := ctx
	if o.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, o.dialTimeout)
		defer cancel()
	}
	var dialer net.Dialer
	tcp, err := dialer.DialContext(dialCtx, "tcp", hostPort)
	if err != nil {
		return nil, err
	}

	cfg := o.tlsConfig
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{"http/1.1"}
	}

	eng := tlsio.NewStdEngine(cfg)
	st, err := tlsio.Connect(eng, tcp).Await(dialCtx)
	if err != nil {
		tcp.Close()
		return nil, err
	}
	o.log.Logf(obs.Info, "connected to %s", hostPort)

	c := &Client{
		host:      host,
		userAgent: userAgent,
		defaults:  sortedKV(defaultHeaders),
		conn:      newConn(st, o.log, o.meter),
	}
	go c.conn.run()
	return c, nil
}

// Execute submits the request and returns immediately. The channel
// delivers exactly one Result; abandoning it is safe.
func (c *Client) Execute(b *Builder) <-chan Result {
	env := newEnvelope(b.build(c.host, c.userAgent, c.defaults))
	c.conn.submit(env)
	return env.done
}

// Do submits the request and waits for its result or ctx cancellation.
// On cancellation the request keeps its place in line; only its result
// is discarded.
func (c *Client) Do(ctx context.Context, b *Builder) (*Response, error) {
	select {
	case res := <-c.Execute(b):
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops the connection actor and closes the underlying
// connection, aborting a request blocked on an unresponsive peer.
// Queued and in-flight requests are answered with ErrShutdown. Shutdown
// may be called any number of times and returns once the actor has
// exited.
func (c *Client) Shutdown() {
	c.conn.stop()
}
