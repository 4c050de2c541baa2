// Package web - Executor middleware
//
// EDUCATIONAL NOTES:
// ------------------
// Context-based dependency injection:
//
// 1. Outer middleware injects the executor into the request context
// 2. Handlers retrieve it with GetExecutor
// 3. RequireExecutor fails fast when it is missing

package web

import (
	"context"
	"net/http"

	"github.com/cabewaldrop/rowdb/internal/sql/executor"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// executorKey is the context key for storing the executor.
const executorKey contextKey = "executor"

// WithExecutor returns middleware that injects exec into the request
// context. Handlers can retrieve it using GetExecutor.
func WithExecutor(exec *executor.Executor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), executorKey, exec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetExecutor retrieves the executor from the request context.
// Returns nil if the executor was not set.
func GetExecutor(r *http.Request) *executor.Executor {
	exec, ok := r.Context().Value(executorKey).(*executor.Executor)
	if !ok {
		return nil
	}
	return exec
}

// RequireExecutor returns 503 Service Unavailable when no executor is in
// the request context.
func RequireExecutor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetExecutor(r) == nil {
			writeError(w, http.StatusServiceUnavailable, "database not initialized", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
