package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppError_Base(t *testing.T) {
	err := NewAppError("Base", 499, "BASE_ERROR")

	assert.Equal(t, "Base", err.Message)
	assert.Equal(t, 499, err.StatusCode())
	assert.Equal(t, "BASE_ERROR", err.Code())
	assert.True(t, err.IsOperational())
	assert.False(t, err.HasDetails())
}

func TestErrorVariants_FixedStatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		build      func(msg string) *AppError
		wantStatus int
		wantCode   string
	}{
		{"validation", func(m string) *AppError { return NewValidationError(m, []FieldViolation{{Field: "name"}}) }, 400, "VALIDATION_ERROR"},
		{"auth", NewAuthError, 401, "AUTH_ERROR"},
		{"forbidden", NewForbiddenError, 403, "FORBIDDEN_ERROR"},
		{"not found", NewNotFoundError, 404, "NOT_FOUND_ERROR"},
		{"conflict", NewConflictError, 409, "CONFLICT_ERROR"},
	}

	for _, tt := range tests {
		for _, msg := range []string{"", "custom message"} {
			t.Run(fmt.Sprintf("%s/%q", tt.name, msg), func(t *testing.T) {
				err := tt.build(msg)
				assert.Equal(t, tt.wantStatus, err.StatusCode())
				assert.Equal(t, tt.wantCode, err.Code())
				assert.True(t, err.IsOperational())
				assert.NotEmpty(t, err.Message)
				if msg != "" {
					assert.Equal(t, msg, err.Message)
				}
			})
		}
	}
}

func TestNewValidationError_KeepsDetails(t *testing.T) {
	err := NewValidationError("Invalid", []FieldViolation{{Field: "name"}})

	assert.Equal(t, []FieldViolation{{Field: "name"}}, err.Details)
	assert.True(t, err.HasDetails())
}

func TestNewValidationError_NilDetailsBecomesEmpty(t *testing.T) {
	err := NewValidationError("Invalid", nil)

	assert.Equal(t, []FieldViolation{}, err.Details)
}

func TestAppError_WithOpAndWrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewNotFoundError("User not found").WithOp("UserService.GetByID").Wrap(cause)

	assert.Equal(t, "UserService.GetByID: User not found", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 404, err.StatusCode(), "status must survive chaining")
}

func TestAsAppError_FindsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewConflictError("Email already exists"))

	ae, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ECONFLICT, ae.Code())
	assert.Equal(t, ECONFLICT, ErrorCode(wrapped))

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestSessionClaims_CanAccessUser(t *testing.T) {
	user := SessionClaims{ID: 7, Role: RoleUser}
	admin := SessionClaims{ID: 1, Role: RoleAdmin}

	assert.True(t, user.CanAccessUser(7))
	assert.False(t, user.CanAccessUser(8))
	assert.True(t, admin.CanAccessUser(8))
}
