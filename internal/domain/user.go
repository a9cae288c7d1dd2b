// Package domain contains core business types and interfaces.
//
// These types are separate from the repository models so the HTTP and
// service layers never depend on database representations.
package domain

import (
	"errors"
	"time"
)

// Role is the authorization role carried in the session token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Sentinel errors returned by the user service.
var (
	ErrUserExists         = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User represents a registered user.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // Never expose this in API responses
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SignUpParams contains the validated parameters for user registration.
type SignUpParams struct {
	Name     string
	Email    string
	Password string // Raw password, will be hashed by service
	Role     Role   // Optional, defaults to RoleUser
}

// UpdateUserParams contains the fields a profile update may change.
// Nil fields are left untouched.
type UpdateUserParams struct {
	Name  *string
	Email *string
	Role  *Role
}

// Empty reports whether the update changes nothing.
func (p UpdateUserParams) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil
}

// SessionClaims is the identity payload embedded in a signed session token.
type SessionClaims struct {
	ID        int64
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClaimsFor builds the session identity for a user. IssuedAt and ExpiresAt
// are filled in by the token service when signing.
func ClaimsFor(u *User) SessionClaims {
	return SessionClaims{ID: u.ID, Email: u.Email, Role: u.Role}
}

// IsAdmin returns true if the session belongs to an admin.
func (c *SessionClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanAccessUser reports whether the session may read or modify user id.
func (c *SessionClaims) CanAccessUser(id int64) bool {
	return c.IsAdmin() || c.ID == id
}
