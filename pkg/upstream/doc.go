// Package upstream is the HTTP client for the remote chat-completion service.
//
// One Client is created at startup and shared by every request. It keeps a
// pooled transport, applies a bounded per-exchange timeout, and returns the
// upstream body only when it is a JSON document:
//
//	client := upstream.New(upstream.ConfigFrom(cfg.Upstream))
//	resp, err := client.PostJSON(ctx, cfg.Upstream.URL, payload)
//	switch upstream.Kind(err) {
//	case upstream.KindTimeout, upstream.KindTransport, upstream.KindDecode:
//	    // map to 500
//	}
//
// The client does not retry and does not interpret the upstream status code.
// Consecutive failures are tracked for readiness reporting.
package upstream
