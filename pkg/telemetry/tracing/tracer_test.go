package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gaia-relay/llamagate/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func testTracer(t *testing.T, ratio float64) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	cfg := &config.TracingConfig{
		Enabled:     true,
		ServiceName: "llamagate-test",
		SampleRatio: ratio,
	}
	tracer := NewWithExporter(cfg, "test", exporter)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected disabled tracer")
	}

	_, span := tracer.Start(context.Background(), "relay.forward")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Error("expected no-op span from disabled tracer")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "relay.forward")
	span.End()
	if tracer.Enabled() {
		t.Error("nil tracer reported enabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on nil tracer failed: %v", err)
	}
}

func TestTracer_RecordsSpan(t *testing.T) {
	tracer, exporter := testTracer(t, 1.0)

	ctx, span := tracer.Start(context.Background(), "relay.forward")
	SetForwardAttributes(span, "req-1", 2, 0.7, 1000, "https://upstream.test/v1/chat/completions")
	SetUpstreamResponse(span, 200, 512)
	SetStatus(span, nil)
	if TraceID(ctx) == "" {
		t.Error("expected trace id in context")
	}
	span.End()

	if err := tracer.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "relay.forward" {
		t.Errorf("unexpected span name %q", got.Name)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("expected OK status, got %v", got.Status.Code)
	}

	attrs := map[string]any{}
	for _, kv := range got.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs[AttrMessageCount] != int64(2) {
		t.Errorf("unexpected message count %v", attrs[AttrMessageCount])
	}
	if attrs[AttrUpstreamStatus] != int64(200) {
		t.Errorf("unexpected upstream status %v", attrs[AttrUpstreamStatus])
	}
}

func TestSetStatus_Error(t *testing.T) {
	tracer, exporter := testTracer(t, 1.0)

	_, span := tracer.Start(context.Background(), "relay.forward")
	SetErrorType(span, "transport")
	SetStatus(span, errors.New("connection refused"))
	span.End()
	_ = tracer.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestSampler_NeverSamplesRoots(t *testing.T) {
	tracer, exporter := testTracer(t, 0)

	_, span := tracer.Start(context.Background(), "relay.forward")
	span.End()
	_ = tracer.ForceFlush(context.Background())

	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("expected no sampled spans, got %d", n)
	}
}

func TestHTTPMiddleware_JoinsInboundTrace(t *testing.T) {
	tracer, _ := testTracer(t, 1.0)

	otel.SetTextMapPropagator(propagation.TraceContext{})

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	var gotTraceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "relay.forward")
		defer span.End()
		gotTraceID = trace.SpanFromContext(ctx).SpanContext().TraceID().String()
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("traceparent", traceparent)
	HTTPMiddleware(handler).ServeHTTP(httptest.NewRecorder(), req)

	if gotTraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected span to join inbound trace, got %q", gotTraceID)
	}
}
