package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"gaia-relay/llamagate/pkg/config"
)

// DefaultMaxResponseBytes caps how much of an upstream body is buffered.
const DefaultMaxResponseBytes = 32 << 20

// Config contains configuration for the upstream client.
type Config struct {
	// Timeout bounds a whole exchange, from dial to the last body byte.
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration

	// MaxResponseBytes caps the buffered response body. Zero uses
	// DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

// ConfigFrom builds a client Config from the upstream configuration section.
func ConfigFrom(cfg config.UpstreamConfig) Config {
	return Config{
		Timeout:             cfg.Timeout,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
}

// Response is a completed upstream exchange whose body is valid JSON.
type Response struct {
	// StatusCode is the upstream HTTP status. It is not interpreted here.
	StatusCode int

	// Body is the upstream JSON document with insignificant whitespace removed.
	Body json.RawMessage

	// Latency is the time from sending the request to reading the last byte.
	Latency time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransport replaces the pooled transport, typically in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.client.Transport = rt
	}
}

// WithHealthObserver registers fn to be called whenever the health state flips.
func WithHealthObserver(fn func(healthy bool)) Option {
	return func(c *Client) {
		c.onHealthChange = fn
	}
}

// Client sends chat-completion requests to the upstream service.
// A single Client is shared by all requests; it is safe for concurrent use.
// It never retries.
type Client struct {
	config  Config
	client  *http.Client
	timeout atomic.Int64
	logger  *slog.Logger

	health         Health
	healthMu       sync.RWMutex
	onHealthChange func(healthy bool)
}

// New creates a Client with a pooled HTTP transport.
func New(cfg Config, opts ...Option) *Client {
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config: cfg,
		// The exchange deadline is applied per request through the context
		// so it can change at runtime; see SetTimeout.
		client: &http.Client{Transport: transport},
		logger: slog.Default(),
		health: Health{
			Healthy:   true,
			LastCheck: time.Now(),
		},
	}
	c.timeout.Store(int64(cfg.Timeout))

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "upstream")

	return c
}

// Timeout returns the current exchange timeout.
func (c *Client) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// SetTimeout changes the exchange timeout for subsequent requests.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout.Store(int64(d))
}

// PostJSON encodes body as JSON, POSTs it to url with
// Content-Type: application/json and no other custom headers, and returns
// the upstream response if its body is a JSON document.
//
// Cancelling ctx aborts the outbound exchange. Failures are returned as
// *TransportError, *TimeoutError or *DecodeError.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*Response, error) {
	payload, err := encodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	timeout := c.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		// A malformed URL is a failure to reach the upstream.
		return nil, c.fail(&TransportError{URL: url, Cause: err})
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "sending request to upstream",
		"url", url,
		"request_bytes", len(payload),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.fail(c.classify(ctx, url, timeout, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	latency := time.Since(start)
	if err != nil {
		return nil, c.fail(c.classify(ctx, url, timeout, err))
	}
	if int64(len(raw)) > c.config.MaxResponseBytes {
		return nil, c.fail(&DecodeError{
			StatusCode: resp.StatusCode,
			Size:       len(raw),
			Cause:      fmt.Errorf("response exceeds %d bytes", c.config.MaxResponseBytes),
		})
	}

	compacted, err := compactJSON(raw)
	if err != nil {
		return nil, c.fail(&DecodeError{
			StatusCode: resp.StatusCode,
			Size:       len(raw),
			Cause:      err,
		})
	}

	c.updateHealth(resp.StatusCode < http.StatusInternalServerError, fmt.Errorf("upstream returned status %d", resp.StatusCode))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       compacted,
		Latency:    latency,
	}, nil
}

// Close releases idle pooled connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// classify maps an error from Do or a body read to a typed error.
func (c *Client) classify(ctx context.Context, url string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Timeout: timeout, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: url, Timeout: timeout, Cause: err}
	}
	return &TransportError{URL: url, Cause: err}
}

// fail records a failed exchange and returns err unchanged.
func (c *Client) fail(err error) error {
	c.updateHealth(false, err)
	return err
}

// compactJSON validates raw as a single JSON document and strips
// insignificant whitespace. Key order and number formatting are preserved.
func compactJSON(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty response body")
	}
	// json.Compact copies string bytes through without checking them.
	if !utf8.Valid(raw) {
		return nil, errors.New("response body is not valid UTF-8")
	}
	var buf bytes.Buffer
	buf.Grow(len(raw))
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// encodeJSON marshals v without HTML escaping so message content reaches the
// upstream byte for byte.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
