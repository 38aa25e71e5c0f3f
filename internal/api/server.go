// Package api exposes the HTTP interface for the grant discovery service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/clarify"
	"github.com/grantscout/grantscout/internal/grant"
)

// Discoverer runs one grant discovery pass.
type Discoverer interface {
	Discover(ctx context.Context, criteria grant.SearchCriteria, mode string) grant.DiscoveryResult
}

// Server wires HTTP handlers to the discovery pipeline.
type Server struct {
	router     chi.Router
	discoverer Discoverer
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(discoverer Discoverer, timeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{discoverer: discoverer, logger: logger}

	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/find-grants", s.findGrants)
		r.Post("/apply-clarification", s.applyClarification)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type findGrantsRequest struct {
	Mode     string               `json:"mode"`
	Criteria grant.SearchCriteria `json:"criteria"`
	// Query is accepted as a shorthand for chat mode.
	Query string `json:"query,omitempty"`
}

func (s *Server) findGrants(w http.ResponseWriter, r *http.Request) {
	var req findGrantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = grant.ModeForm
	}
	if mode != grant.ModeForm && mode != grant.ModeChat {
		s.writeError(w, http.StatusBadRequest, "mode must be form or chat")
		return
	}
	if req.Query != "" {
		req.Criteria.FreeTextQuery = req.Query
		mode = grant.ModeChat
	}

	result := s.discoverer.Discover(r.Context(), req.Criteria, mode)
	s.writeJSON(w, http.StatusOK, result)
}

type applyClarificationRequest struct {
	Criteria grant.SearchCriteria `json:"criteria"`
	Choice   string               `json:"choice"`
}

type applyClarificationResponse struct {
	Criteria grant.SearchCriteria `json:"criteria"`
}

func (s *Server) applyClarification(w http.ResponseWriter, r *http.Request) {
	var req applyClarificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Choice == "" {
		s.writeError(w, http.StatusBadRequest, "choice is required")
		return
	}
	s.writeJSON(w, http.StatusOK, applyClarificationResponse{
		Criteria: clarify.Apply(req.Criteria, req.Choice),
	})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
