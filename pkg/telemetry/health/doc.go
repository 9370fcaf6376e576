// Package health implements liveness and readiness probes.
//
// Liveness (/health) only says the process is up. Readiness (/ready) runs
// every registered component check concurrently, each bounded by a timeout,
// and answers 503 when any of them fails.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("upstream", client.HealthCheck)
//	checker.RegisterCheck("journal", store.Ping)
//
//	adminMux := http.NewServeMux()
//	health.Register(adminMux, checker, health.VersionInfo{Version: version})
//
// The probes are served on the admin listener. The main listener exposes the
// chat-completions route only.
package health
