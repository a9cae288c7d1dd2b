package handler

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/text/unicode/norm"

	"github.com/DukeRupert/acquisitions/internal/domain"
)

// Request payload field limits. Name and email limits count characters, to
// match the varchar(255) columns; password limits count bytes.
const (
	nameMinLen     = 2
	nameMaxLen     = 255
	emailMaxLen    = 255
	passwordMinLen = 6
	passwordMaxLen = 72 // bcrypt rejects longer input
)

// cleanName trims and NFC-composes a name so a combining accent and its base
// letter count as one character.
func cleanName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

var roleRule = validation.In(string(domain.RoleAdmin), string(domain.RoleUser)).
	Error("must be either admin or user")

// =============================================================================
// Sign Up
// =============================================================================

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *signUpRequest) normalize() {
	r.Name = cleanName(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.TrimSpace(r.Role)
}

// Validate will run validation rules
func (r signUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(nameMinLen, nameMaxLen)),
		validation.Field(&r.Email, validation.Required, validation.RuneLength(0, emailMaxLen), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
		validation.Field(&r.Role, roleRule),
	)
}

func (r signUpRequest) params() domain.SignUpParams {
	return domain.SignUpParams{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     domain.Role(r.Role),
	}
}

// =============================================================================
// Sign In
// =============================================================================

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *signInRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate will run validation rules
func (r signInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// =============================================================================
// Update User
// =============================================================================

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

func (r *updateUserRequest) normalize() {
	if r.Name != nil {
		v := cleanName(*r.Name)
		r.Name = &v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
	if r.Role != nil {
		v := strings.TrimSpace(*r.Role)
		r.Role = &v
	}
}

// Validate will run validation rules. At least one field must be present.
func (r updateUserRequest) Validate() error {
	if r.Name == nil && r.Email == nil && r.Role == nil {
		return validation.Errors{
			"body": errors.New("at least one field must be provided"),
		}
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.RuneLength(nameMinLen, nameMaxLen)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.RuneLength(0, emailMaxLen), is.Email),
		validation.Field(&r.Role, validation.NilOrNotEmpty, roleRule),
	)
}

func (r updateUserRequest) params() domain.UpdateUserParams {
	p := domain.UpdateUserParams{Name: r.Name, Email: r.Email}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		p.Role = &role
	}
	return p
}

// =============================================================================
// Helpers
// =============================================================================

// validationFailed converts an ozzo result into a ValidationError carrying
// the field violations. Errors that are not field errors are returned as-is.
func validationFailed(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	return domain.NewValidationError("Validation Failed", fieldViolations(verrs))
}
