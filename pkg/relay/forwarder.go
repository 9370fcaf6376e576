package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"gaia-relay/llamagate/pkg/journal"
	"gaia-relay/llamagate/pkg/proxy"
	"gaia-relay/llamagate/pkg/proxy/middleware"
	"gaia-relay/llamagate/pkg/telemetry/metrics"
	"gaia-relay/llamagate/pkg/telemetry/tracing"
	"gaia-relay/llamagate/pkg/upstream"
)

// Poster sends a JSON body upstream. *upstream.Client implements it.
type Poster interface {
	PostJSON(ctx context.Context, url string, body any) (*upstream.Response, error)
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the forwarder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics records request and upstream metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *Forwarder) {
		f.metrics = c
	}
}

// WithTracer starts a span per forwarded request.
func WithTracer(t *tracing.Tracer) Option {
	return func(f *Forwarder) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithJournal records an entry per forwarded request.
func WithJournal(r *journal.Recorder) Option {
	return func(f *Forwarder) {
		f.journal = r
	}
}

// WithMaxRequestBytes limits the inbound body size.
func WithMaxRequestBytes(n int64) Option {
	return func(f *Forwarder) {
		if n > 0 {
			f.maxRequestBytes = n
		}
	}
}

// Forwarder is the http.Handler for POST /v1/chat/completions. It injects
// the configured generation parameters and relays the upstream JSON.
//
// A well-formed request gets either the upstream JSON document or a 500 with
// an empty body. A malformed one gets a 4xx and never reaches the upstream.
type Forwarder struct {
	client          Poster
	settings        atomic.Pointer[Settings]
	maxRequestBytes int64

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	journal *journal.Recorder
}

// New creates a Forwarder that sends through client.
func New(client Poster, settings Settings, opts ...Option) *Forwarder {
	f := &Forwarder{
		client:          client,
		maxRequestBytes: proxy.DefaultMaxRequestBytes,
		logger:          slog.Default(),
		tracer:          tracing.Disabled(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "relay")
	f.Update(settings)
	return f
}

// Settings returns the settings currently in effect.
func (f *Forwarder) Settings() Settings {
	return *f.settings.Load()
}

// Update swaps the settings used by subsequent requests. Requests already
// in flight finish with the snapshot they started with.
func (f *Forwarder) Update(s Settings) {
	f.settings.Store(&s)
	f.logger.Info("forwarder settings applied",
		"upstream_url", s.URL,
		"temperature", s.Params.Temperature,
		"max_tokens", s.Params.MaxTokens,
		"propagate_status", s.PropagateStatus,
	)
}

// exchange carries what one request accumulates for logging, metrics and
// the journal.
type exchange struct {
	meta     *proxy.RequestMetadata
	settings Settings
	resp     proxy.ResponseMetadata
	outcome  string
	err      error
}

// ServeHTTP forwards a chat-completion request.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	received := time.Now()
	requestID := middleware.GetRequestID(ctx)

	f.metrics.IncInFlight()
	defer f.metrics.DecInFlight()

	chatReq, requestBytes, err := proxy.ParseChatRequest(r, f.maxRequestBytes)
	if err != nil {
		f.reject(w, r, err, requestBytes, received)
		return
	}

	ex := &exchange{
		meta:     proxy.ExtractRequestMetadata(r, requestID, chatReq, requestBytes, received),
		settings: f.Settings(),
	}

	ctx, span := f.tracer.Start(ctx, "relay.forward", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	tracing.SetForwardAttributes(span, requestID, ex.meta.MessageCount,
		ex.settings.Params.Temperature, ex.settings.Params.MaxTokens, ex.settings.URL)

	f.logger.DebugContext(ctx, "forwarding chat completion request",
		"messages", ex.meta.MessageCount,
		"request_bytes", requestBytes,
	)

	resp, err := f.client.PostJSON(ctx, ex.settings.URL, NewUpstreamRequest(chatReq, ex.settings.Params))
	if err != nil {
		f.fail(ctx, w, span, ex, err)
	} else {
		f.relay(ctx, w, span, ex, resp)
	}

	ex.resp.Duration = time.Since(received)
	f.metrics.RecordRequest(ex.outcome, ex.resp.Duration, requestBytes, ex.resp.ResponseBytes)
	f.record(ex)
}

// reject answers a request that failed parsing. The upstream is not called
// and nothing is journaled.
func (f *Forwarder) reject(w http.ResponseWriter, r *http.Request, err error, requestBytes int, received time.Time) {
	ctx := r.Context()

	errResp := proxy.HandleError(err)
	if errResp == nil {
		// Reading the body failed, usually because the client went away.
		f.logger.WarnContext(ctx, "failed to read request body", "error", err)
		proxy.WriteEmpty(w, http.StatusBadRequest)
	} else {
		f.logger.InfoContext(ctx, "rejected malformed request",
			"code", errResp.Error.Code,
			"param", errResp.Error.Param,
			"error", err,
		)
		if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
			f.logger.ErrorContext(ctx, "failed to write error response", "error", werr)
		}
	}

	f.metrics.RecordRequest(metrics.OutcomeBadRequest, time.Since(received), requestBytes, 0)
}

// fail answers an upstream failure with 500 and an empty body.
func (f *Forwarder) fail(ctx context.Context, w http.ResponseWriter, span trace.Span, ex *exchange, err error) {
	kind := upstream.Kind(err)
	ex.err = err
	ex.resp.StatusCode = http.StatusInternalServerError
	ex.resp.ErrorKind = kind

	var decodeErr *upstream.DecodeError
	if errors.As(err, &decodeErr) {
		ex.outcome = metrics.OutcomeDecodeError
		ex.resp.UpstreamStatus = decodeErr.StatusCode
		f.logger.ErrorContext(ctx, "upstream response is not valid JSON",
			"upstream_status", decodeErr.StatusCode,
			"response_bytes", decodeErr.Size,
			"error", err,
		)
	} else {
		ex.outcome = metrics.OutcomeUpstreamError
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			f.logger.WarnContext(ctx, "client disconnected before upstream answered", "error", err)
		} else {
			f.logger.ErrorContext(ctx, "upstream request failed",
				"error_kind", kind,
				"error", err,
			)
		}
	}
	f.metrics.RecordUpstreamError(kind)

	tracing.SetErrorType(span, kind)
	tracing.SetStatus(span, err)

	proxy.WriteEmpty(w, http.StatusInternalServerError)
}

// relay writes the upstream JSON. The upstream status is only passed on
// when PropagateStatus is set.
func (f *Forwarder) relay(ctx context.Context, w http.ResponseWriter, span trace.Span, ex *exchange, resp *upstream.Response) {
	status := http.StatusOK
	if ex.settings.PropagateStatus {
		status = resp.StatusCode
	}

	ex.outcome = metrics.OutcomeOK
	ex.resp.StatusCode = status
	ex.resp.UpstreamStatus = resp.StatusCode
	ex.resp.ResponseBytes = len(resp.Body)
	ex.resp.Latency = resp.Latency

	f.metrics.RecordUpstreamResponse(resp.StatusCode, resp.Latency)
	tracing.SetUpstreamResponse(span, resp.StatusCode, len(resp.Body))
	tracing.SetStatus(span, nil)

	if err := proxy.WriteRawJSON(w, status, resp.Body); err != nil {
		f.logger.WarnContext(ctx, "failed to write response", "error", err)
	}

	f.logger.DebugContext(ctx, "chat completion relayed",
		"status", status,
		"upstream_status", resp.StatusCode,
		"response_bytes", len(resp.Body),
		"upstream_latency_ms", resp.Latency.Milliseconds(),
	)
}

func (f *Forwarder) record(ex *exchange) {
	if f.journal == nil {
		return
	}

	entry := &journal.Entry{
		RequestID:       ex.meta.RequestID,
		ReceivedAt:      ex.meta.Timestamp.UTC(),
		Method:          ex.meta.Method,
		Path:            ex.meta.Path,
		RemoteAddr:      ex.meta.RemoteAddr,
		UserAgent:       ex.meta.UserAgent,
		MessageCount:    ex.meta.MessageCount,
		RequestBytes:    ex.meta.RequestBytes,
		UpstreamURL:     ex.settings.URL,
		Temperature:     ex.settings.Params.Temperature,
		MaxTokens:       ex.settings.Params.MaxTokens,
		StatusCode:      ex.resp.StatusCode,
		UpstreamStatus:  ex.resp.UpstreamStatus,
		ResponseBytes:   ex.resp.ResponseBytes,
		Outcome:         ex.outcome,
		ErrorKind:       ex.resp.ErrorKind,
		UpstreamLatency: ex.resp.Latency,
		Duration:        ex.resp.Duration,
	}
	if ex.err != nil {
		entry.Error = ex.err.Error()
	}

	// A full buffer is already logged and counted by the recorder.
	_ = f.journal.Record(entry)
}
