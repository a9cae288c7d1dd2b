package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/DukeRupert/acquisitions/internal/handler"
	"github.com/DukeRupert/acquisitions/internal/metrics"
)

// Recoverer turns a panic in a downstream handler into a 500 response
// written by the error translator.
type Recoverer struct {
	errs   *handler.Errors
	logger *slog.Logger
}

// NewRecoverer creates a Recoverer.
func NewRecoverer(errs *handler.Errors, logger *slog.Logger) *Recoverer {
	return &Recoverer{errs: errs, logger: logger}
}

// Handler returns the panic-recovery middleware.
func (m *Recoverer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Let the server abort the connection as it would without us.
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			metrics.PanicsRecovered.Inc()
			m.logger.Error("panic recovered",
				"panic", rec,
				"request_id", handler.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			m.errs.Respond(w, r, fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}
