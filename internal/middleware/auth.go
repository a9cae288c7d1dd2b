// Package middleware contains HTTP middleware for the Acquisitions API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/acquisitions/internal/auth"
	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/handler"
	"github.com/DukeRupert/acquisitions/internal/session"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// TokenVerifier verifies session tokens. *token.Service satisfies it.
type TokenVerifier interface {
	Verify(raw string) (domain.SessionClaims, error)
}

// AuthMiddleware provides authentication middleware functionality.
//
// This struct holds dependencies needed by auth middleware functions.
// Create one instance and use its methods as middleware.
type AuthMiddleware struct {
	tokens  TokenVerifier
	cookies *session.Transport
	errs    *handler.Errors
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
//
// Parameters:
// - tokens: Verifies the session token carried in the cookie
// - cookies: Reads the session cookie
// - errs: Writes error responses
// - logger: Structured logger for auth events
func NewAuthMiddleware(tokens TokenVerifier, cookies *session.Transport, errs *handler.Errors, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		cookies: cookies,
		errs:    errs,
		logger:  logger,
	}
}

// =============================================================================
// WithUser Middleware
// =============================================================================

// WithUser is middleware that attempts to load the session claims from the
// session cookie.
//
// This middleware:
// 1. Checks for a session cookie
// 2. If found, verifies the token
// 3. Stores the claims in the request context
// 4. Continues to the next handler regardless of authentication status
//
// The claims can be retrieved in handlers using:
//
//	claims := auth.GetClaimsFromRequest(r)
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.verify(r)
		if err != nil {
			if !errors.Is(err, session.ErrNoCookie) {
				m.logger.Debug("ignoring invalid session", "error", err, "path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetClaims(r.Context(), claims)))
	})
}

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser is middleware that requires a verified session.
//
// A request without a session cookie fails with AuthError("Authentication
// required"). A cookie that fails verification fails with the verification
// error itself, which the error translator reports as "Invalid token" or
// "Token expired".
//
// RequireUser may be used with or without WithUser in front of it.
//
// Flow:
//
//	Request -> RequireUser -> Handler
//	           |
//	           +-> Claims already in context: call next handler
//	           +-> Read cookie (missing: 401 Authentication required)
//	           +-> Verify token (invalid: 401 Invalid token / Token expired)
//	           +-> Set claims in context and call next handler
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetClaimsFromRequest(r) != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.verify(r)
		if err != nil {
			if errors.Is(err, session.ErrNoCookie) {
				err = domain.NewAuthError("Authentication required").WithOp("AuthMiddleware.RequireUser")
			}
			m.errs.Respond(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetClaims(r.Context(), claims)))
	})
}

// =============================================================================
// RequireRole Middleware
// =============================================================================

// RequireRole returns middleware that only admits sessions whose role is one
// of roles. Use it AFTER RequireUser in the middleware chain.
//
// Usage:
//
//	requireAdmin := Stack(authMw.RequireUser, authMw.RequireRole(domain.RoleAdmin))
//	mux.Handle("GET /api/users", requireAdmin(listHandler))
func (m *AuthMiddleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetClaimsFromRequest(r)
			if claims == nil {
				// This shouldn't happen if RequireUser is used before this middleware
				m.logger.Error("RequireRole called without claims in context")
				m.errs.Respond(w, r, domain.NewAuthError("Authentication required"))
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.Warn("insufficient permissions",
				"user_id", claims.ID,
				"role", claims.Role,
				"path", r.URL.Path,
			)
			m.errs.Respond(w, r, domain.NewForbiddenError("Insufficient permissions").WithOp("AuthMiddleware.RequireRole"))
		})
	}
}

// verify reads and verifies the session cookie.
func (m *AuthMiddleware) verify(r *http.Request) (*domain.SessionClaims, error) {
	raw, err := m.cookies.Read(r, session.CookieName)
	if err != nil {
		return nil, err
	}
	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(authMw.RequireUser, authMw.RequireRole(domain.RoleAdmin))
//	mux.Handle("GET /api/users", stack(listHandler))
//
// This is equivalent to:
//
//	mux.Handle("GET /api/users",
//	    authMw.RequireUser(authMw.RequireRole(domain.RoleAdmin)(listHandler)))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// Compile-time checks
// =============================================================================

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
)
