package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/acquisitions/internal/handler"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

func TestRequestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, true)

	req := httptest.NewRequest("GET", "/api/users/7", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	req.Header.Set("User-Agent", "Mozilla/5.0 TestBrowser")
	req = req.WithContext(handler.WithRequestID(req.Context(), "req-abc"))

	mw.Handler(statusHandler(http.StatusNotFound)).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{
		"method=GET",
		"path=/api/users/7",
		"status=404",
		"duration_ms=",
		"ip=203.0.113.195",
		"bytes=0",
		"TestBrowser",
		"request_id=req-abc",
		"level=INFO",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log should contain %q, got: %s", want, out)
		}
	}
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, false)

	req := httptest.NewRequest("POST", "/api/auth/sign-up", nil)
	mw.Handler(statusHandler(http.StatusInternalServerError)).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("5xx should log at WARN level, got: %s", buf.String())
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, false)

	req := httptest.NewRequest("GET", "/api/users?token=secrettoken123&page=2", nil)
	mw.Handler(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "secrettoken123") {
		t.Errorf("log should NOT contain sensitive token value, got: %s", out)
	}
	if !strings.Contains(out, "token=[REDACTED]") || !strings.Contains(out, "page=2") {
		t.Errorf("log should keep redacted and safe params, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_PassesResponseThrough(t *testing.T) {
	logger, _ := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, false)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("response body"))
	})

	rec := httptest.NewRecorder()
	mw.Handler(h).ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/sign-up", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Error("custom header should be preserved")
	}
	if rec.Body.String() != "response body" {
		t.Errorf("response body should be preserved, got: %s", rec.Body.String())
	}
}

func TestRequestLoggingMiddleware_IgnoresForwardedForUnlessTrusted(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, false)

	req := httptest.NewRequest("GET", "/api/users/7", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	mw.Handler(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "ip=10.0.0.1") || strings.Contains(out, "203.0.113.195") {
		t.Errorf("log should carry the remote address only, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_CountsBytes(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger, false)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
		_, _ = w.Write([]byte("\n"))
	})
	mw.Handler(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api", nil))

	if !strings.Contains(buf.String(), "bytes=17") {
		t.Errorf("log should count both writes, got: %s", buf.String())
	}
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		want     string
	}{
		{"no query", "", "/api/users"},
		{"safe params kept in order", "page=2&sort=name", "/api/users?page=2&sort=name"},
		{"case-insensitive keys", "Token=abc&page=1", "/api/users?Token=[REDACTED]&page=1"},
		{"email redacted", "email=a@b.c", "/api/users?email=[REDACTED]"},
		{"empty keys dropped", "&=x&page=1", "/api/users?page=1"},
		{"bare flag kept", "debug", "/api/users?debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactQuery("/api/users", tt.rawQuery); got != tt.want {
				t.Errorf("redactQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logger, buf := newBufferLogger()
			mw := NewRequestLoggingMiddleware(logger, false)

			mw.Handler(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

			if buf.Len() != 0 {
				t.Errorf("%s should not be logged, got: %s", path, buf.String())
			}
		})
	}

	// Only exact matches are quiet.
	logger, buf := newBufferLogger()
	NewRequestLoggingMiddleware(logger, false).Handler(statusHandler(http.StatusNotFound)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if buf.Len() == 0 {
		t.Error("/healthz should be logged")
	}
}

// =============================================================================
// Request ID Middleware Tests
// =============================================================================

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api", nil))

	if len(seen) != 36 {
		t.Errorf("generated id = %q, want a UUID", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}
}

func TestRequestID_ReusesClientValue(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"well formed", "client-id-123", true},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"control chars", "bad\nid", false},
		{"spaces", "has space", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = handler.RequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got := seen == tt.header; got != tt.reuse {
				t.Errorf("reused = %v, want %v (seen %q)", got, tt.reuse, seen)
			}
		})
	}
}

// =============================================================================
// Recoverer Tests
// =============================================================================

func TestRecoverer_TranslatesPanic(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRecoverer(handler.NewErrors(logger), logger)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write in handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Error.Code != "INTERNAL_ERROR" || body.Error.Message != "Internal server error" {
		t.Errorf("error = %+v", body.Error)
	}
	if strings.Contains(rec.Body.String(), "nil map") {
		t.Error("panic value must not reach the client")
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic should be logged, got: %s", buf.String())
	}
}

func TestRecoverer_RepanicsAbortHandler(t *testing.T) {
	logger, _ := newBufferLogger()
	mw := NewRecoverer(handler.NewErrors(logger), logger)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}
