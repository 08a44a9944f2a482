// Command hfetch issues HTTPS requests against a single host over one
// shared connection. All routes given on the command line are submitted
// concurrently and answered in submission order.
//
//	hfetch example.com / /robots.txt /index.html
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dqx0.com/go/hclient/httpc"
	"dqx0.com/go/hclient/internal/obs"
)

var (
	flagMethod    string
	flagHeaders   []string
	flagBody      string
	flagUserAgent string
	flagTimeout   time.Duration
	flagInsecure  bool
	flagVerbose   bool
)

func main() {
	// Missing .env is fine; it only supplies defaults.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "hfetch <host> [route ...]",
		Short:        "fetch routes from one HTTPS host over a single connection",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringVarP(&flagMethod, "request", "X", "GET", "request method")
	root.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "extra header, as 'Name: value'")
	root.Flags().StringVarP(&flagBody, "data", "d", "", "request body")
	root.Flags().StringVarP(&flagUserAgent, "user-agent", "A", defaultUserAgent(), "User-Agent header")
	root.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "per-request timeout")
	root.Flags().BoolVarP(&flagInsecure, "insecure", "k", false, "skip certificate verification")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultUserAgent() string {
	if ua := os.Getenv("HFETCH_USER_AGENT"); ua != "" {
		return ua
	}
	return "hfetch/1.0"
}

func run(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	method, err := parseMethod(flagMethod)
	if err != nil {
		return err
	}
	defaults := make(map[string]string)
	for _, h := range flagHeaders {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("malformed header %q, want 'Name: value'", h)
		}
		defaults[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	host := args[0]
	routes := args[1:]
	if len(routes) == 0 {
		routes = []string{"/"}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []httpc.Option{
		httpc.WithLogger(obs.ZerologLogger{L: logger}),
		httpc.WithDialTimeout(flagTimeout),
	}
	if flagInsecure {
		opts = append(opts, httpc.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	client, err := httpc.Connect(ctx, host, flagUserAgent, defaults, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", host, err)
	}
	defer client.Shutdown()

	results := make([]*httpc.Response, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	for i, route := range routes {
		i, route := i, route
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, flagTimeout)
			defer cancel()

			req := httpc.NewRequest(method, route)
			if flagBody != "" {
				req.Body([]byte(flagBody))
			}
			resp, err := client.Do(reqCtx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", route, err)
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, resp := range results {
		if flagVerbose {
			logger.Debug().
				Str("route", routes[i]).
				Int("status", resp.Code).
				Int("bytes", len(resp.Content)).
				Msg("fetched")
		}
		fmt.Printf("== %s %d %s\n", routes[i], resp.Code, resp.Class())
		os.Stdout.Write(resp.Content)
		if len(resp.Content) > 0 && resp.Content[len(resp.Content)-1] != '\n' {
			fmt.Println()
		}
	}
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func parseMethod(s string) (httpc.Method, error) {
	switch strings.ToUpper(s) {
	case "GET":
		return httpc.GET, nil
	case "PUT":
		return httpc.PUT, nil
	case "POST":
		return httpc.POST, nil
	case "HEAD":
		return httpc.HEAD, nil
	case "PATCH":
		return httpc.PATCH, nil
	case "OPTIONS":
		return httpc.OPTIONS, nil
	case "CONNECT":
		return httpc.CONNECT, nil
	default:
		return 0, fmt.Errorf("unsupported method %q", s)
	}
}
