package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/acquisitions/internal/handler"
)

// quietPaths are polled by load balancers and Prometheus and are not logged.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// redactedParams are query parameters whose values never reach the logs.
// Credentials travel in JSON bodies and the session cookie, so these only
// appear when a client misuses the query string.
var redactedParams = map[string]bool{
	"token":    true,
	"password": true,
	"email":    true,
	"secret":   true,
}

// RequestLoggingMiddleware logs one line per API request.
type RequestLoggingMiddleware struct {
	logger     *slog.Logger
	trustProxy bool
}

// NewRequestLoggingMiddleware creates a new request logging middleware.
// trustProxy has the same meaning as for NewRateLimitMiddleware.
func NewRequestLoggingMiddleware(logger *slog.Logger, trustProxy bool) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{
		logger:     logger,
		trustProxy: trustProxy,
	}
}

// Handler returns middleware that logs method, path, status, response size,
// duration, client address and request id. 5xx responses log at warn; the
// error translator has already logged the cause.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", redactQuery(r.URL.Path, r.URL.RawQuery),
			"status", rec.statusCode,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", getClientIP(r, m.trustProxy),
			"user_agent", r.UserAgent(),
		}
		if id := handler.RequestID(r.Context()); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		if rec.statusCode >= http.StatusInternalServerError {
			m.logger.Warn("request", attrs...)
			return
		}
		m.logger.Info("request", attrs...)
	})
}

// responseWriter records the status and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// redactQuery appends rawQuery to path with the values of redactedParams
// replaced. Parameter order is preserved.
func redactQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		key, _, hasValue := strings.Cut(part, "=")
		if key == "" {
			continue
		}
		if hasValue && redactedParams[strings.ToLower(key)] {
			part = key + "=[REDACTED]"
		}
		kept = append(kept, part)
	}

	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}
