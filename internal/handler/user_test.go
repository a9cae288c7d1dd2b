package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/acquisitions/internal/auth"
	"github.com/DukeRupert/acquisitions/internal/domain"
)

func newTestUserHandler(mock *mockUserService) *UserHandler {
	logger := newTestLogger()
	return NewUserHandler(mock, newTestCookies(), NewErrors(logger), logger)
}

// asUser attaches session claims and the {id} path value to req.
func asUser(req *http.Request, id int64, role domain.Role, pathID string) *http.Request {
	req = req.WithContext(auth.SetClaims(req.Context(), &domain.SessionClaims{
		ID:    id,
		Email: "caller@example.com",
		Role:  role,
	}))
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	return req
}

func serveUser(h *UserHandler, fn APIFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.errs.Wrap(fn).ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// GET /api/users
// =============================================================================

func TestUserList(t *testing.T) {
	admin := testUser()
	admin.ID, admin.Role = 1, domain.RoleAdmin
	mock := &mockUserService{
		ListFunc: func(ctx context.Context) ([]*domain.User, error) {
			return []*domain.User{admin, testUser()}, nil
		},
	}
	h := newTestUserHandler(mock)

	req := asUser(httptest.NewRequest("GET", "/api/users", nil), 1, domain.RoleAdmin, "")
	rec := serveUser(h, h.List, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"message":"Successfully retrieved users"`)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"createdAt":"2026-03-01T12:00:00Z"`)
	assert.NotContains(t, rec.Body.String(), "hash-that-must-never-leak")
}

func TestUserList_EmptyIsArray(t *testing.T) {
	mock := &mockUserService{
		ListFunc: func(ctx context.Context) ([]*domain.User, error) { return nil, nil },
	}
	h := newTestUserHandler(mock)

	req := asUser(httptest.NewRequest("GET", "/api/users", nil), 1, domain.RoleAdmin, "")
	rec := serveUser(h, h.List, req)

	assert.JSONEq(t, `{"message":"Successfully retrieved users","users":[],"count":0}`, rec.Body.String())
}

// =============================================================================
// GET /api/users/{id}
// =============================================================================

func TestUserGet_Access(t *testing.T) {
	tests := []struct {
		name     string
		callerID int64
		role     domain.Role
		pathID   string
		status   int
		code     string
	}{
		{"self", 7, domain.RoleUser, "7", http.StatusOK, ""},
		{"admin reads other", 1, domain.RoleAdmin, "7", http.StatusOK, ""},
		{"user reads other", 8, domain.RoleUser, "7", http.StatusForbidden, "FORBIDDEN_ERROR"},
		{"bad id", 7, domain.RoleUser, "abc", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero id", 7, domain.RoleUser, "0", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockUserService{
				GetByIDFunc: func(ctx context.Context, id int64) (*domain.User, error) {
					return testUser(), nil
				},
			}
			h := newTestUserHandler(mock)

			req := asUser(httptest.NewRequest("GET", "/api/users/"+tt.pathID, nil), tt.callerID, tt.role, tt.pathID)
			rec := serveUser(h, h.Get, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
			} else {
				assert.Contains(t, rec.Body.String(), `"message":"User retrieved successfully"`)
			}
		})
	}
}

func TestUserGet_InvalidIDDetails(t *testing.T) {
	h := newTestUserHandler(&mockUserService{})

	req := asUser(httptest.NewRequest("GET", "/api/users/x", nil), 7, domain.RoleUser, "x")
	rec := serveUser(h, h.Get, req)

	body := decodeError(t, rec)
	assert.Equal(t, "Invalid user id", body.Error.Message)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "id", body.Error.Details[0].Field)
}

func TestUserGet_NotFound(t *testing.T) {
	mock := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id int64) (*domain.User, error) {
			return nil, domain.NewNotFoundError("User not found")
		},
	}
	h := newTestUserHandler(mock)

	req := asUser(httptest.NewRequest("GET", "/api/users/99", nil), 1, domain.RoleAdmin, "99")
	rec := serveUser(h, h.Get, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeError(t, rec).Error.Message)
}

func TestUserGet_NoSession(t *testing.T) {
	h := newTestUserHandler(&mockUserService{})

	req := httptest.NewRequest("GET", "/api/users/7", nil)
	req.SetPathValue("id", "7")
	rec := serveUser(h, h.Get, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decodeError(t, rec).Error.Message)
}

// =============================================================================
// PUT /api/users/{id}
// =============================================================================

func TestUserUpdate_Self(t *testing.T) {
	var got domain.UpdateUserParams
	mock := &mockUserService{
		UpdateFunc: func(ctx context.Context, id int64, params domain.UpdateUserParams) (*domain.User, error) {
			assert.Equal(t, int64(7), id)
			got = params
			u := testUser()
			u.Name = *params.Name
			return u, nil
		},
	}
	h := newTestUserHandler(mock)

	req := asUser(jsonRequest("PUT", "/api/users/7", `{"name":" Ada King "}`), 7, domain.RoleUser, "7")
	rec := serveUser(h, h.Update, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"message":"User updated successfully"`)
	assert.Contains(t, rec.Body.String(), `"name":"Ada King"`)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ada King", *got.Name)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.Role)
}

func TestUserUpdate_RoleChangeRequiresAdmin(t *testing.T) {
	mock := &mockUserService{
		UpdateFunc: func(ctx context.Context, id int64, params domain.UpdateUserParams) (*domain.User, error) {
			u := testUser()
			u.Role = *params.Role
			return u, nil
		},
	}
	h := newTestUserHandler(mock)

	req := asUser(jsonRequest("PUT", "/api/users/7", `{"role":"admin"}`), 7, domain.RoleUser, "7")
	rec := serveUser(h, h.Update, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = asUser(jsonRequest("PUT", "/api/users/7", `{"role":"admin"}`), 1, domain.RoleAdmin, "7")
	rec = serveUser(h, h.Update, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestUserUpdate_ValidationUsesGenericMessage(t *testing.T) {
	h := newTestUserHandler(&mockUserService{})

	req := asUser(jsonRequest("PUT", "/api/users/7", `{"email":"nope","role":"root"}`), 1, domain.RoleAdmin, "7")
	rec := serveUser(h, h.Update, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Validation failed", body.Error.Message)
	require.Len(t, body.Error.Details, 2)
	assert.Equal(t, "email", body.Error.Details[0].Field)
	assert.Equal(t, "role", body.Error.Details[1].Field)
}

func TestUserUpdate_EmptyBody(t *testing.T) {
	h := newTestUserHandler(&mockUserService{})

	req := asUser(jsonRequest("PUT", "/api/users/7", `{}`), 7, domain.RoleUser, "7")
	rec := serveUser(h, h.Update, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "body", body.Error.Details[0].Field)
}

func TestUserUpdate_EmailTaken(t *testing.T) {
	mock := &mockUserService{
		UpdateFunc: func(ctx context.Context, id int64, params domain.UpdateUserParams) (*domain.User, error) {
			return nil, &pgconn.PgError{Code: "23505"}
		},
	}
	h := newTestUserHandler(mock)

	req := asUser(jsonRequest("PUT", "/api/users/7", `{"email":"taken@example.com"}`), 7, domain.RoleUser, "7")
	rec := serveUser(h, h.Update, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Resource already exists", decodeError(t, rec).Error.Message)
}

// =============================================================================
// DELETE /api/users/{id}
// =============================================================================

func TestUserDelete_SelfClearsCookie(t *testing.T) {
	mock := &mockUserService{
		DeleteFunc: func(ctx context.Context, id int64) error { return nil },
	}
	h := newTestUserHandler(mock)

	req := asUser(httptest.NewRequest("DELETE", "/api/users/7", nil), 7, domain.RoleUser, "7")
	rec := serveUser(h, h.Delete, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, rec.Body.String())
	assert.Less(t, sessionCookie(t, rec).MaxAge, 0)
}

func TestUserDelete_AdminKeepsOwnSession(t *testing.T) {
	mock := &mockUserService{
		DeleteFunc: func(ctx context.Context, id int64) error { return nil },
	}
	h := newTestUserHandler(mock)

	req := asUser(httptest.NewRequest("DELETE", "/api/users/7", nil), 1, domain.RoleAdmin, "7")
	rec := serveUser(h, h.Delete, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestUserDelete_Forbidden(t *testing.T) {
	h := newTestUserHandler(&mockUserService{
		DeleteFunc: func(ctx context.Context, id int64) error {
			t.Fatal("Delete must not be called")
			return nil
		},
	})

	req := asUser(httptest.NewRequest("DELETE", "/api/users/7", nil), 8, domain.RoleUser, "7")
	rec := serveUser(h, h.Delete, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
