package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route paths.
const (
	IncomingPath     = "/traduttore/v1/incoming-webhook"
	LegacyGitHubPath = "/github-webhook/v1/push-event"
	HealthPath       = "/healthz"
)

// EventDispatcher is the decision side the server delegates to.
type EventDispatcher interface {
	Dispatch(ctx context.Context, p Provider, h http.Header, body []byte) Decision
}

// Config holds webhook server configuration.
type Config struct {
	Listen       string
	MaxBodySize  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// LegacyGitHubEndpoint also serves LegacyGitHubPath, which only accepts
	// GitHub deliveries.
	LegacyGitHubEndpoint bool
}

// Server represents the webhook HTTP server.
type Server struct {
	config     Config
	dispatcher EventDispatcher
	logger     *slog.Logger
	server     *http.Server
}

// New creates a new webhook server instance.
func New(config Config, dispatcher EventDispatcher, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	return &Server{
		config:     config,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "legacy_github_endpoint", s.config.LegacyGitHubEndpoint)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get(HealthPath, s.handleHealth)
	r.Post(IncomingPath, s.handleIncoming)
	if s.config.LegacyGitHubEndpoint {
		r.Post(LegacyGitHubPath, s.handleLegacyGitHub)
	}
	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIncoming serves every provider, detected from its event header.
func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	p, _ := Detect(r.Header)
	s.dispatch(w, r, p)
}

// handleLegacyGitHub keeps the historical GitHub-only endpoint working.
func (s *Server) handleLegacyGitHub(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, GitHub{})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, p Provider) {
	// Undetected providers and unsupported events are refused before the
	// body is read, whatever its size.
	if p == nil || !p.SupportsEvent(p.EventType(r.Header)) {
		s.respondDecision(w, s.dispatcher.Dispatch(r.Context(), p, r.Header, nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "", "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "payload too large")
		return
	}

	d := s.dispatcher.Dispatch(r.Context(), p, r.Header, body)
	s.respondDecision(w, d)
}

func (s *Server) respondDecision(w http.ResponseWriter, d Decision) {
	switch d.Status {
	case http.StatusOK:
		s.respondJSON(w, http.StatusOK, ResultResponse{Result: d.Result})
	case http.StatusUnauthorized:
		s.respondError(w, http.StatusUnauthorized, "rest_forbidden", ResultForbidden)
	case http.StatusNotFound:
		s.respondError(w, http.StatusNotFound, "not_found", d.Result)
	case http.StatusBadRequest:
		s.respondError(w, http.StatusBadRequest, "invalid_payload", d.Result)
	default:
		s.respondError(w, d.Status, "internal_error", ResultInternalError)
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{Code: code, Error: message})
}
