// Package middleware contains HTTP middleware shared by the client's local
// listeners: the sign-in callback server and the in-process test API.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one debug line per request: method, path, status, duration,
// bytes written, and the chi request id when RequestID runs earlier.
//
// QUERY STRINGS ARE NOT LOGGED:
// The sign-in callback carries the bearer token in its query string, so only
// r.URL.Path ever reaches the log.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// handler wrote nothing; net/http answers 200
				status = http.StatusOK
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
			}
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("requestID", reqID))
			}

			logger.Debug("request completed", attrs...)
		})
	}
}
