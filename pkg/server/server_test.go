package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/relay"
	"gaia-relay/llamagate/pkg/telemetry/health"
	"gaia-relay/llamagate/pkg/telemetry/logging"
	"gaia-relay/llamagate/pkg/telemetry/metrics"
	"gaia-relay/llamagate/pkg/upstream"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestRoutes_MethodAndPathDiscipline(t *testing.T) {
	handler := Routes(okHandler(), logging.Discard())

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodPost, "/v1/chat/completions", http.StatusOK},
		{http.MethodGet, "/v1/chat/completions", http.StatusMethodNotAllowed},
		{http.MethodPut, "/v1/chat/completions", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/v1/chat/completions", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/v1/chat/completions", http.StatusMethodNotAllowed},
		{http.MethodPost, "/v1/completions", http.StatusNotFound},
		{http.MethodPost, "/v1/chat/completions/extra", http.StatusNotFound},
		{http.MethodGet, "/", http.StatusNotFound},
		{http.MethodGet, "/health", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"messages":[]}`)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != http.MethodPost {
				t.Errorf("Allow = %q, want POST", rec.Header().Get("Allow"))
			}
		})
	}
}

func TestRoutes_RequestIDEchoed(t *testing.T) {
	handler := Routes(okHandler(), logging.Discard())

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("X-Request-ID", "client-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-1" {
		t.Errorf("X-Request-ID = %q, want client-1", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestRoutes_PanicRecovered(t *testing.T) {
	handler := Routes(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.Discard())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil))
	if rec.Code != http.StatusInternalServerError || rec.Body.Len() != 0 {
		t.Errorf("got %d %q, want 500 with empty body", rec.Code, rec.Body.String())
	}
}

func testProxyConfig() *config.ProxyConfig {
	return &config.ProxyConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxHeaderBytes:  1 << 20,
	}
}

func startServer(t *testing.T, srv *Server) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errc:
		cancelFn()
		t.Fatalf("Start() failed: %v", err)
	case <-time.After(5 * time.Second):
		cancelFn()
		t.Fatal("server did not start")
	}
	return cancelFn, errc
}

func TestServer_StartAndShutdown(t *testing.T) {
	var stdout bytes.Buffer
	srv := NewServer(testProxyConfig(), okHandler(), WithLogger(logging.Discard()), WithStartupWriter(&stdout))

	cancel, done := startServer(t, srv)

	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}
	want := "Server running on http://" + srv.Addr() + "\n"
	if stdout.String() != want {
		t.Errorf("startup line = %q, want %q", stdout.String(), want)
	}

	resp, err := http.Post("http://"+srv.Addr()+"/v1/chat/completions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `{"ok":true}` {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("expected server to be stopped")
	}
}

func TestServer_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	cfg := testProxyConfig()
	cfg.ListenAddress = ln.Addr().String()
	srv := NewServer(cfg, okHandler(), WithLogger(logging.Discard()), WithStartupWriter(io.Discard))

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected error for address in use")
	}
}

func TestServer_ForwardsEndToEnd(t *testing.T) {
	const reply = `{"id":"x","choices":[{"message":{"role":"assistant","content":"hello"}}]}`
	var gotBody []byte
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, reply)
	}))
	defer up.Close()

	client := upstream.New(upstream.Config{Timeout: 5 * time.Second})
	defer client.Close()
	forwarder := relay.New(client, relay.Settings{URL: up.URL, Params: relay.DefaultParams()}, relay.WithLogger(logging.Discard()))

	srv := NewServer(testProxyConfig(), forwarder, WithLogger(logging.Discard()), WithStartupWriter(io.Discard))
	cancel, done := startServer(t, srv)
	defer func() {
		cancel()
		<-done
	}()

	resp, err := http.Post("http://"+srv.Addr()+"/v1/chat/completions", "application/json",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != reply {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}
	if string(gotBody) != `{"messages":[{"role":"user","content":"hi"}],"temperature":0.7,"max_tokens":1000}` {
		t.Errorf("upstream body = %s", gotBody)
	}
}

func TestAdminRoutes(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, prometheus.NewRegistry())
	collector.RecordRequest(metrics.OutcomeOK, time.Second, 10, 20)

	checker := health.New(time.Second)
	handler := AdminRoutes(collector, "/metrics", checker, health.VersionInfo{Version: "1.2.3"})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/metrics", http.StatusOK, "test_relay_requests_total"},
		{"/health", http.StatusOK, `"status"`},
		{"/ready", http.StatusOK, `"status"`},
		{"/version", http.StatusOK, `"version":"1.2.3"`},
		{"/v1/chat/completions", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAdminServer_StartAndShutdown(t *testing.T) {
	srv := NewAdminServer("127.0.0.1:0", AdminRoutes(nil, "", health.New(0), health.VersionInfo{}), time.Second,
		WithLogger(logging.Discard()))
	cancel, done := startServer(t, srv)

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() returned %v", err)
	}
}
