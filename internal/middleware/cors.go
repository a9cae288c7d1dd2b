package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS returns middleware that admits cross-origin requests from the single
// configured front-end origin. Credentials are allowed so the browser sends
// the session cookie; preflight requests are answered here and never reach
// the mux.
func NewCORS(origin string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return c.Handler
}
