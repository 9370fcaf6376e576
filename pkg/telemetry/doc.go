// Package telemetry groups the service's observability packages.
//
//   - logging: log/slog construction and request-scoped fields
//   - metrics: Prometheus collector for requests, the upstream and the journal
//   - health: liveness and readiness probes
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//
// Metrics and probes are served on the optional admin listener
// (telemetry.admin_address) so the main listener keeps a single route.
package telemetry
