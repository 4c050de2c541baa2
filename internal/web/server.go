// Package web provides the HTTP API for the database.
//
// EDUCATIONAL NOTES:
// ------------------
// This package sets up an HTTP server using the chi router, which is a
// lightweight, idiomatic Go router. Key concepts:
//
// 1. Middleware: Functions that wrap handlers to add cross-cutting concerns
//    like request ids, structured logging, panic recovery and timeouts.
//
// 2. Graceful shutdown: When the context is cancelled (SIGINT/SIGTERM in the
//    CLI), the server stops accepting connections and finishes in-flight
//    requests before returning.
//
// 3. Dependency injection: The Executor is passed into the server and made
//    available to handlers through the request context.

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/sql/executor"
)

// Server represents the HTTP server.
type Server struct {
	router   *chi.Mux
	addr     string
	executor *executor.Executor
}

// NewServer creates a new HTTP server listening on addr.
// If exec is nil, the /api routes answer 503.
func NewServer(addr string, exec *executor.Executor) *Server {
	r := chi.NewRouter()

	r.Use(logging.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(logging.LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	s := &Server{
		router:   r,
		addr:     addr,
		executor: exec,
	}

	s.routes()
	return s
}

// routes sets up all HTTP routes for the server.
func (s *Server) routes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(WithExecutor(s.executor))
		r.Use(RequireExecutor)

		r.Get("/rows", s.handleAPIRows)
		r.Post("/rows", s.handleAPIInsert)
		r.Post("/statements", s.handleAPIStatement)
		r.Get("/stats", s.handleAPIStats)
	})
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info("starting server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Info("shutdown signal received, gracefully shutting down")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logging.Info("server stopped")
	return nil
}
