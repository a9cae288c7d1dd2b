package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/acquisitions/internal/auth"
	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/metrics"
	"github.com/DukeRupert/acquisitions/internal/service"
	"github.com/DukeRupert/acquisitions/internal/session"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// TokenSigner issues signed session tokens. *token.Service satisfies it.
type TokenSigner interface {
	Sign(claims domain.SessionClaims) (string, error)
}

// AuthHandler handles sign-up, sign-in and sign-out.
//
// Dependencies:
// - userService: Business logic for user creation and credential checks
// - tokens: Signs the session token placed in the cookie
// - cookies: Writes and clears the session cookie
// - errs: Adapter that routes returned errors to ErrorResponse
// - logger: Structured logging for auth events
//
// Routes handled:
// - POST /api/auth/sign-up  -> SignUp
// - POST /api/auth/sign-in  -> SignIn
// - POST /api/auth/sign-out -> SignOut
type AuthHandler struct {
	userService service.UserService
	tokens      TokenSigner
	cookies     *session.Transport
	errs        *Errors
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
func NewAuthHandler(
	userService service.UserService,
	tokens TokenSigner,
	cookies *session.Transport,
	errs *Errors,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		cookies:     cookies,
		errs:        errs,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes.
//
// rateLimit guards the credential endpoints. withUser loads the session, if
// any, so sign-out can log who signed out.
func (h *AuthHandler) RegisterRoutes(
	mux *http.ServeMux,
	rateLimit func(http.Handler) http.Handler,
	withUser func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/auth/sign-up", rateLimit(h.errs.Wrap(h.SignUp)))
	mux.Handle("POST /api/auth/sign-in", rateLimit(h.errs.Wrap(h.SignIn)))
	mux.Handle("POST /api/auth/sign-out", withUser(h.errs.Wrap(h.SignOut)))
}

// =============================================================================
// Response Types
// =============================================================================

// authUser is the user representation returned by the auth endpoints.
// It never includes the password hash.
type authUser struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func newAuthUser(u *domain.User) authUser {
	return authUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type authResponse struct {
	Message string   `json:"message"`
	User    authUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// POST /api/auth/sign-up
// =============================================================================

// SignUp registers a new user and starts a session.
//
// Flow:
// 1. Decode and validate the payload (400 with field violations on failure)
// 2. Create the user (409 "Email already exists" on duplicate email)
// 3. Sign a session token and set it as the session cookie
// 4. Respond 201 with the public user fields
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) error {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		metrics.AuthFailed(metrics.EventSignUp)
		return validationFailed(err)
	}

	user, err := h.userService.Register(r.Context(), req.params())
	if err != nil {
		metrics.AuthFailed(metrics.EventSignUp)
		if errors.Is(err, domain.ErrUserExists) {
			return domain.NewConflictError("Email already exists").WithOp("AuthHandler.SignUp").Wrap(err)
		}
		return err
	}

	if err := h.startSession(w, user); err != nil {
		return err
	}

	metrics.AuthSucceeded(metrics.EventSignUp)
	h.logger.Info("user registered successfully", "user_id", user.ID, "email", user.Email)

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    newAuthUser(user),
	})
	return nil
}

// =============================================================================
// POST /api/auth/sign-in
// =============================================================================

// SignIn verifies credentials and starts a session. Bad credentials surface
// as the service's AuthError.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) error {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		metrics.AuthFailed(metrics.EventSignIn)
		return validationFailed(err)
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthFailed(metrics.EventSignIn)
		return err
	}

	if err := h.startSession(w, user); err != nil {
		return err
	}

	metrics.AuthSucceeded(metrics.EventSignIn)
	h.logger.Info("user signed in successfully", "user_id", user.ID, "email", user.Email)

	writeJSON(w, http.StatusOK, authResponse{
		Message: "User signed in successfully",
		User:    newAuthUser(user),
	})
	return nil
}

// =============================================================================
// POST /api/auth/sign-out
// =============================================================================

// SignOut clears the session cookie. It always succeeds.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) error {
	h.cookies.Clear(w, session.CookieName)

	if claims := auth.GetClaimsFromRequest(r); claims != nil {
		h.logger.Info("user signed out successfully",
			"user_id", claims.ID,
			"email", claims.Email,
			"session_age", sessionAge(claims, time.Now()).Round(time.Second),
		)
	} else {
		h.logger.Info("user signed out successfully")
	}
	metrics.AuthSucceeded(metrics.EventSignOut)

	writeJSON(w, http.StatusOK, messageResponse{Message: "User signed out successfully"})
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// startSession signs a token for user and sets it as the session cookie.
// The user record is already persisted at this point; if signing fails the
// client recovers by signing in.
func (h *AuthHandler) startSession(w http.ResponseWriter, user *domain.User) error {
	signed, err := h.tokens.Sign(domain.ClaimsFor(user))
	if err != nil {
		return err
	}
	h.cookies.Set(w, session.CookieName, signed)
	return nil
}

// sessionAge returns how long ago the session in claims was issued.
func sessionAge(claims *domain.SessionClaims, now time.Time) time.Duration {
	if claims == nil || claims.IssuedAt.IsZero() {
		return 0
	}
	return now.Sub(claims.IssuedAt)
}
