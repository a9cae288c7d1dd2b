// Package handler contains HTTP handlers for the Acquisitions API.
//
// Handlers are written as APIFunc values that return an error instead of
// writing one. Errors.Wrap adapts them to http.Handler and sends every
// returned error through ErrorResponse.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/acquisitions/internal/domain"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20 // 1 MB

// APIFunc is an HTTP handler that reports failure by returning an error.
type APIFunc func(w http.ResponseWriter, r *http.Request) error

// Errors adapts APIFunc handlers and owns the logger used for error responses.
type Errors struct {
	logger *slog.Logger
}

// NewErrors creates an Errors adapter.
func NewErrors(logger *slog.Logger) *Errors {
	return &Errors{logger: logger}
}

// Wrap converts fn into an http.Handler. A non-nil error returned by fn is
// written with ErrorResponse.
func (e *Errors) Wrap(fn APIFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			ErrorResponse(w, r, e.logger, err)
		}
	})
}

// Respond writes err with ErrorResponse. Middleware uses it to fail a request.
func (e *Errors) Respond(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, e.logger, err)
}

// NotFound is the fallback for requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) error {
	return domain.NewNotFoundError("Route not found")
}

// =============================================================================
// Request ID
// =============================================================================

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// =============================================================================
// JSON Helpers
// =============================================================================

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON value from the request body into dst.
// An empty body decodes to the zero value so that field validation reports
// the missing fields. Anything after the value is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return bodyError(err)
	}

	switch err := dec.Decode(&struct{}{}); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return bodyError(err)
	default:
		return domain.NewValidationError("Invalid JSON body", nil)
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.NewAppError("Request body too large", http.StatusRequestEntityTooLarge, domain.EVALIDATION).Wrap(err)
	}
	return domain.NewValidationError("Invalid JSON body", nil).Wrap(err)
}
