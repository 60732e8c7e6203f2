// Package api serves the daemon's status line over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/statusline/internal/auth"
	"github.com/mattjoyce/statusline/internal/daemon"
	"github.com/mattjoyce/statusline/internal/events"
	"github.com/mattjoyce/statusline/internal/history"
	"github.com/mattjoyce/statusline/internal/statusline"
)

// LineSource exposes the published status line.
type LineSource interface {
	Snapshot() daemon.Snapshot
}

// SessionStore holds the session snapshot renders are built from.
type SessionStore interface {
	Session() statusline.Request
	SetSession(req statusline.Request)
}

// AttemptLister reads recorded attempts, newest first.
type AttemptLister interface {
	Recent(ctx context.Context, limit int) ([]history.Attempt, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// Tokens enables bearer auth on /v1 routes when non-empty.
	Tokens []auth.TokenConfig
}

// Server is the HTTP API server.
type Server struct {
	config    Config
	lines     LineSource
	sessions  SessionStore
	attempts  AttemptLister
	events    *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Server. attempts may be nil when history is disabled.
func New(config Config, lines LineSource, sessions SessionStore, attempts AttemptLister, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		lines:     lines,
		sessions:  sessions,
		attempts:  attempts,
		events:    hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: the event stream is long-lived.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", ln.Addr().String(), "auth", len(s.config.Tokens) > 0)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireScopes(auth.ScopeLineRead)).Get("/line", s.handleLine)
		r.With(s.requireScopes(auth.ScopeSessionRO)).Get("/session", s.handleGetSession)
		r.With(s.requireScopes(auth.ScopeSessionRW)).Put("/session", s.handlePutSession)
		r.With(s.requireScopes(auth.ScopeHistory)).Get("/attempts", s.handleAttempts)
		r.With(s.requireScopes(auth.ScopeEvents)).Get("/events", s.handleEventSnapshot)
		r.With(s.requireScopes(auth.ScopeEvents)).Get("/events/stream", s.handleEventStream)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware is a pass-through when no tokens are configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.Tokens) == 0 {
			ctx := auth.WithPrincipal(r.Context(), auth.Principal{Scopes: map[string]struct{}{auth.ScopeAll: {}}})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		principal, ok := auth.Authenticate(token, s.config.Tokens)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (s *Server) requireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := auth.PrincipalFromContext(r.Context())
			if !auth.HasAnyScope(principal, scopes...) {
				s.writeError(w, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
