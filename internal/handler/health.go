package handler

import (
	"net/http"
	"time"
)

// HealthHandler serves the liveness and banner endpoints.
type HealthHandler struct {
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler. Uptime is measured from started.
func NewHealthHandler(started time.Time) *HealthHandler {
	return &HealthHandler{started: started, now: time.Now}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // seconds
}

// RegisterRoutes registers GET /health and GET /api.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux, errs *Errors) {
	mux.Handle("GET /health", errs.Wrap(h.Health))
	mux.Handle("GET /api", errs.Wrap(h.Root))
}

// Health reports that the process is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) error {
	now := h.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.started).Seconds(),
	})
	return nil
}

// Root confirms the API is reachable.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Acquisitions API is running!"})
	return nil
}
