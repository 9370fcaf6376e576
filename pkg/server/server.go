package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"gaia-relay/llamagate/pkg/config"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStartupWriter sets where the "Server running on" line is printed.
// Default: os.Stdout.
func WithStartupWriter(w io.Writer) Option {
	return func(s *Server) {
		s.stdout = w
	}
}

// Server runs an HTTP listener until its context is cancelled.
type Server struct {
	name            string
	address         string
	handler         http.Handler
	shutdownTimeout time.Duration
	announce        bool

	logger *slog.Logger
	stdout io.Writer

	httpServer   *http.Server
	listener     net.Listener
	ready        chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the main listener. handler is mounted at
// POST /v1/chat/completions and is the only route.
func NewServer(cfg *config.ProxyConfig, handler http.Handler, opts ...Option) *Server {
	s := newServer("proxy", cfg.ListenAddress, nil, cfg.ShutdownTimeout, opts...)
	s.announce = true
	s.handler = Routes(handler, s.logger)
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	return s
}

// NewAdminServer creates the listener for metrics and health probes.
func NewAdminServer(address string, handler http.Handler, shutdownTimeout time.Duration, opts ...Option) *Server {
	s := newServer("admin", address, handler, shutdownTimeout, opts...)
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func newServer(name, address string, handler http.Handler, shutdownTimeout time.Duration, opts ...Option) *Server {
	s := &Server{
		name:            name,
		address:         address,
		handler:         handler,
		shutdownTimeout: shutdownTimeout,
		logger:          slog.Default(),
		stdout:          os.Stdout,
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server", "listener", name)
	return s
}

// Start binds the listener and serves until ctx is cancelled, then shuts
// down gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("%s server is already running", s.name)
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	addr := ln.Addr().String()
	s.logger.Info("listener started", "address", addr)
	if s.announce && s.stdout != nil {
		fmt.Fprintf(s.stdout, "Server running on http://%s\n", addr)
	}
	close(s.ready)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("%s server error: %w", s.name, err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits up to the shutdown
// timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.shutdownTimeout.String())

		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("%s server shutdown error: %w", s.name, err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("listener stopped")
	})

	return shutdownErr
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.address
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
