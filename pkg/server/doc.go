// Package server provides the HTTP listeners of llamagate.
//
// The main listener binds proxy.listen_address (127.0.0.1:3000 by default)
// and exposes exactly one route, POST /v1/chat/completions. Everything else
// is answered by the mux: 405 for another method on that path, 404 for any
// other path. When it is bound it prints one line to standard output:
//
//	Server running on http://127.0.0.1:3000
//
// The optional admin listener serves Prometheus metrics and the /health,
// /ready and /version probes on a separate address so that the main
// listener keeps its single route.
//
// # Basic Usage
//
//	forwarder := relay.New(client, relay.SettingsFrom(cfg))
//	srv := server.NewServer(&cfg.Proxy, forwarder, server.WithLogger(logger))
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully,
// waiting up to proxy.shutdown_timeout for in-flight requests.
//
// # Middleware
//
// Requests pass through, outermost first: panic recovery, request ID,
// trace context extraction and access logging. See the middleware package.
package server
