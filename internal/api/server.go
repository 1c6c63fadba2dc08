// Package api provides the HTTP REST transport for the chatbot.
//
// Endpoints:
//
//	POST /api/sessions  →  create a conversation session
//	GET  /api/sessions  →  list active sessions
//	POST /api/chat      →  send one utterance to a session
//	GET  /health        →  liveness probe
//	GET  /ready         →  readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - session.go: in-memory session registry and endpoints
//   - chat.go: chat endpoint
//   - health.go: health check endpoints
//   - middleware.go: logging, recovery, rate limiting
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
	"github.com/AdityaGirish/Chatbot101/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to resist slow clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Engine processes conversation turns. Required.
	Engine *chat.Engine

	// RateBurst is the per-IP token bucket size. Defaults to 30.
	RateBurst int

	// Logger for server operations. Required.
	Logger log.Logger
}

func (c *ServerConfig) validate() error {
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Server is the HTTP server for the chatbot REST API.
type Server struct {
	mux     *http.ServeMux
	logger  log.Logger
	limiter *rateLimiter

	sessions *sessionRegistry

	// Handlers
	health  *HealthHandler
	session *SessionHandler
	chat    *ChatHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}

	logger := cfg.Logger.With("component", "api")
	sessions := newSessionRegistry(cfg.Engine, logger)

	mux := http.NewServeMux()
	s := &Server{
		mux:      mux,
		logger:   logger,
		limiter:  newRateLimiter(float64(burst)/2, burst),
		sessions: sessions,
		health:   NewHealthHandler(sessions),
		session:  NewSessionHandler(sessions, logger),
		chat:     NewChatHandler(sessions, logger),
	}

	s.health.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(s.limiter, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully. Idle sessions are swept in the background
// for the lifetime of the server.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	go s.sessions.sweep(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
