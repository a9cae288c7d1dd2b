package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DukeRupert/acquisitions/internal/auth"
	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/service"
	"github.com/DukeRupert/acquisitions/internal/session"
)

// UserHandler serves the /api/users resource.
//
// Routes handled:
// - GET    /api/users      -> List   (admin)
// - GET    /api/users/{id} -> Get    (self or admin)
// - PUT    /api/users/{id} -> Update (self or admin; role changes admin only)
// - DELETE /api/users/{id} -> Delete (self or admin)
type UserHandler struct {
	userService service.UserService
	cookies     *session.Transport
	errs        *Errors
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	userService service.UserService,
	cookies *session.Transport,
	errs *Errors,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookies:     cookies,
		errs:        errs,
		logger:      logger,
	}
}

// RegisterRoutes registers the users routes with the provided middleware.
func (h *UserHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireUser func(http.Handler) http.Handler,
	requireAdmin func(http.Handler) http.Handler,
) {
	mux.Handle("GET /api/users", requireAdmin(h.errs.Wrap(h.List)))
	mux.Handle("GET /api/users/{id}", requireUser(h.errs.Wrap(h.Get)))
	mux.Handle("PUT /api/users/{id}", requireUser(h.errs.Wrap(h.Update)))
	mux.Handle("DELETE /api/users/{id}", requireUser(h.errs.Wrap(h.Delete)))
}

// =============================================================================
// Response Types
// =============================================================================

type userResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type usersEnvelope struct {
	Message string         `json:"message"`
	Users   []userResponse `json:"users"`
	Count   int            `json:"count"`
}

// =============================================================================
// Handlers
// =============================================================================

// List returns every user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.userService.List(r.Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}

	h.logger.Info("retrieved users", "count", len(out))
	writeJSON(w, http.StatusOK, usersEnvelope{
		Message: "Successfully retrieved users",
		Users:   out,
		Count:   len(out),
	})
	return nil
}

// Get returns a single user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, claims, err := h.target(r)
	if err != nil {
		return err
	}
	if !claims.CanAccessUser(id) {
		return domain.NewForbiddenError("You can only access your own account")
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, userEnvelope{
		Message: "User retrieved successfully",
		User:    newUserResponse(user),
	})
	return nil
}

// Update changes a user's profile. Only admins may change roles.
//
// Validation failures are returned unwrapped so the error translator reports
// them with the generic validation message.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, claims, err := h.target(r)
	if err != nil {
		return err
	}
	if !claims.CanAccessUser(id) {
		return domain.NewForbiddenError("You can only update your own account")
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Role != nil && !claims.IsAdmin() {
		return domain.NewForbiddenError("Only admin users can change roles")
	}

	user, err := h.userService.Update(r.Context(), id, req.params())
	if err != nil {
		return err
	}

	h.logger.Info("user updated", "user_id", user.ID, "by", claims.ID)
	writeJSON(w, http.StatusOK, userEnvelope{
		Message: "User updated successfully",
		User:    newUserResponse(user),
	})
	return nil
}

// Delete removes a user. Deleting your own account also ends the session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, claims, err := h.target(r)
	if err != nil {
		return err
	}
	if !claims.CanAccessUser(id) {
		return domain.NewForbiddenError("You can only delete your own account")
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		return err
	}

	if claims.ID == id {
		h.cookies.Clear(w, session.CookieName)
	}

	h.logger.Info("user deleted", "user_id", id, "by", claims.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// target returns the {id} path value and the caller's session claims.
func (h *UserHandler) target(r *http.Request) (int64, *domain.SessionClaims, error) {
	claims := auth.GetClaimsFromRequest(r)
	if claims == nil {
		return 0, nil, domain.NewAuthError("Authentication required")
	}

	id, err := parseUserID(r.PathValue("id"))
	if err != nil {
		return 0, nil, err
	}
	return id, claims, nil
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid user id", []domain.FieldViolation{
			{Field: "id", Message: "must be a positive integer"},
		})
	}
	return id, nil
}
