package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/metrics"
	"github.com/DukeRupert/acquisitions/internal/repository"
	"github.com/DukeRupert/acquisitions/internal/token"
)

// Fixed client-facing messages for recognized external error shapes.
const (
	msgValidationFailed = "Validation failed"
	msgInvalidToken     = "Invalid token"
	msgTokenExpired     = "Token expired"
	msgAlreadyExists    = "Resource already exists"
	msgInternal         = "Internal server error"
)

// statusCoder is implemented by errors that carry their own HTTP status.
// A zero status means "not set".
type statusCoder interface {
	StatusCode() int
}

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// translation is the client-visible result of classifying an error.
type translation struct {
	status  int
	code    string
	message string
	details any
}

// ErrorResponse writes the JSON error envelope for err.
//
// This is the only function that writes an error body. Handlers return
// errors through APIFunc, and middleware calls ErrorResponse directly.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	t := translate(err)

	logError(logger, r, err, t.code, domain.ErrorOp(err), t.status)
	metrics.ErrorWritten(t.code, t.status)

	writeJSONError(w, t)
}

// translate classifies err. The first matching rule wins:
//
//  1. *domain.AppError: its own status, code, message and details
//  2. ozzo validation.Errors: 400 with per-field violations
//  3. malformed session token: 401 "Invalid token"
//  4. expired session token: 401 "Token expired"
//  5. postgres unique violation: 409 "Resource already exists"
//  6. anything else: 500, or the error's own StatusCode() when set
func translate(err error) translation {
	if ae, ok := domain.AsAppError(err); ok {
		t := translation{status: ae.StatusCode(), code: ae.Code(), message: ae.Message}
		if ae.HasDetails() {
			t.details = ae.Details
		}
		return t
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return translation{
			status:  http.StatusBadRequest,
			code:    domain.EVALIDATION,
			message: msgValidationFailed,
			details: fieldViolations(verrs),
		}
	}

	if token.IsMalformed(err) {
		return translation{status: http.StatusUnauthorized, code: domain.EAUTH, message: msgInvalidToken}
	}

	if token.IsExpired(err) {
		return translation{status: http.StatusUnauthorized, code: domain.EAUTH, message: msgTokenExpired}
	}

	if repository.IsUniqueViolation(err) {
		return translation{status: http.StatusConflict, code: domain.ECONFLICT, message: msgAlreadyExists}
	}

	status := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) {
		// Out-of-range codes would make WriteHeader panic.
		if s := sc.StatusCode(); s >= 100 && s <= 599 {
			status = s
		}
	}

	message := msgInternal
	if status != http.StatusInternalServerError && err != nil {
		message = err.Error()
	}
	return translation{status: status, code: domain.EINTERNAL, message: message}
}

// fieldViolations flattens ozzo errors into a list sorted by field name.
func fieldViolations(errs validation.Errors) []domain.FieldViolation {
	out := make([]domain.FieldViolation, 0, len(errs))
	for field, err := range errs {
		if err == nil {
			continue
		}
		out = append(out, domain.FieldViolation{Field: field, Message: err.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	errText := "<nil>"
	if err != nil {
		errText = err.Error()
	}

	attrs := []any{
		"error", errText,
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}

	if id := RequestID(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}

	// Add operation if present
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	// Log level based on status code:
	// - 5xx errors are server-side issues
	// - 4xx errors are info (client errors, expected)
	if status >= 500 {
		logger.Error("server error", attrs...)
	} else {
		logger.Info("client error", attrs...)
	}
}

// writeJSONError writes the error envelope.
func writeJSONError(w http.ResponseWriter, t translation) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(t.status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error: errorBody{
			Code:    t.code,
			Message: t.message,
			Details: t.details,
		},
	})
}
