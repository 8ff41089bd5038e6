// Package api exposes the retrieval pipeline over HTTP: JSON endpoints
// for retrieval and suggestions, and a server-sent-events endpoint that
// streams citations followed by answer tokens.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// Deps are the services the server exposes. Retriever is required;
// everything else degrades to an informative error when nil.
type Deps struct {
	Retriever driving.RetrievalService
	Answerer  driving.AnswerService
	Suggester driven.Suggester

	// IndexStat reports the number of indexed titles for the health
	// endpoint. Nil means the index is not wired.
	IndexStat func(ctx context.Context) (int, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	deps   Deps
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/ask", s.handleAsk)
		r.Get("/suggest", s.handleSuggest)
		r.Post("/pages/search", s.handlePageSearch)
	})

	s.router = r
}

// requestID assigns a fresh UUID to every request, echoed back in the
// X-Request-ID header for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request's correlation ID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d (%s) [%s]",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), RequestID(r.Context()))
	})
}
