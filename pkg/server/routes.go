package server

import (
	"log/slog"
	"net/http"

	"gaia-relay/llamagate/pkg/proxy/middleware"
	"gaia-relay/llamagate/pkg/telemetry/health"
	"gaia-relay/llamagate/pkg/telemetry/metrics"
	"gaia-relay/llamagate/pkg/telemetry/tracing"
)

// ChatCompletionsPath is the single route of the main listener.
const ChatCompletionsPath = "/v1/chat/completions"

// Routes builds the main listener's handler. Only POST to
// ChatCompletionsPath reaches forwarder; other methods get 405 and other
// paths 404 from the mux.
func Routes(forwarder http.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+ChatCompletionsPath, forwarder)

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware,
		tracing.HTTPMiddleware,
		middleware.LoggingMiddleware(logger),
	)
}

// AdminRoutes builds the admin listener's handler: Prometheus metrics at
// metricsPath plus /health, /ready and /version. A nil collector leaves
// the metrics endpoint out.
func AdminRoutes(collector *metrics.Collector, metricsPath string, checker *health.Checker, info health.VersionInfo) http.Handler {
	mux := http.NewServeMux()
	if collector != nil && metricsPath != "" {
		mux.Handle("GET "+metricsPath, collector.Handler())
	}
	health.Register(mux, checker, info)
	return mux
}
