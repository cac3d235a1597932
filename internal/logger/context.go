package logger

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// Middleware injects a request-scoped logger carrying the method and path,
// so handlers and usecases log through FromContext without plumbing.
func Middleware(l *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l.With(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), reqLogger)))
		})
	}
}
