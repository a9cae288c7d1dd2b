package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/acquisitions/internal"
	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/handler"
	"github.com/DukeRupert/acquisitions/internal/metrics"
	"github.com/DukeRupert/acquisitions/internal/middleware"
	"github.com/DukeRupert/acquisitions/internal/service"
	"github.com/DukeRupert/acquisitions/internal/session"
	"github.com/DukeRupert/acquisitions/internal/token"
)

// newRouter builds the full HTTP handler: routes plus the global middleware
// chain.
func newRouter(cfg *internal.Config, logger *slog.Logger, userService service.UserService, tokens *token.Service) http.Handler {
	errs := handler.NewErrors(logger)

	cookies := session.NewTransport(session.Options{
		Secure:   !cfg.IsDevelopment(),
		SameSite: cfg.CookieSameSite,
		MaxAge:   cfg.JWTExpiresIn,
	})

	// ==========================================================================
	// Middleware
	// ==========================================================================

	authMw := middleware.NewAuthMiddleware(tokens, cookies, errs, logger)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(authLimiter, errs, logger, cfg.TrustProxy)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, errs)

	requireUser := authMw.RequireUser
	requireAdmin := middleware.Stack(authMw.RequireUser, authMw.RequireRole(domain.RoleAdmin))

	// ==========================================================================
	// Routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", metricsAuth.Handler(metrics.Handler()))

	handler.NewHealthHandler(time.Now()).RegisterRoutes(mux, errs)
	handler.NewAuthHandler(userService, tokens, cookies, errs, logger).
		RegisterRoutes(mux, rateLimitMw.Limit, authMw.WithUser)
	handler.NewUserHandler(userService, cookies, errs, logger).
		RegisterRoutes(mux, requireUser, requireAdmin)

	// Catch-all: unknown paths and unsupported methods on known paths.
	mux.Handle("/", errs.Wrap(handler.NotFound))

	return middleware.Stack(
		middleware.NewRecoverer(errs, logger).Handler,
		middleware.RequestID,
		middleware.NewRequestLoggingMiddleware(logger, cfg.TrustProxy).Handler,
		metrics.Middleware,
		middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment()).Handler,
		middleware.NewCORS(cfg.CORSOrigin),
	)(mux)
}
