// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories and domain logic.
// They are responsible for:
// - Business rule enforcement
// - Password hashing and comparison
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/DukeRupert/acquisitions/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Configuration Constants
// =============================================================================

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 10

// dummyHash is a bcrypt hash compared against on unknown emails so sign-in
// takes the same time whether or not the account exists.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z5Ip5wK6OQ2RrFB7u0pGqTnS"

// =============================================================================
// Interface Definition
// =============================================================================

// UserStore is the persistence collaborator. *repository.Queries satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	GetUserByID(ctx context.Context, id int64) (repository.User, error)
	ListUsers(ctx context.Context) ([]repository.User, error)
	UpdateUser(ctx context.Context, arg repository.UpdateUserParams) (repository.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserService defines the interface for user-related operations.
type UserService interface {
	// Register creates a new user account.
	// Returns domain.ErrUserExists if the email is already registered.
	Register(ctx context.Context, params domain.SignUpParams) (*domain.User, error)

	// Authenticate checks credentials and returns the matching user.
	// Returns an AuthError for an unknown email or a wrong password.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetByID retrieves a user by their ID.
	// Returns a NotFoundError if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// List returns every user ordered by id.
	List(ctx context.Context) ([]*domain.User, error)

	// Update changes the non-nil fields of params.
	// Returns a NotFoundError if the user does not exist. A duplicate email
	// is returned as the driver's unique-violation error.
	Update(ctx context.Context, id int64, params domain.UpdateUserParams) (*domain.User, error)

	// Delete removes a user.
	// Returns a NotFoundError if the user does not exist.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	store      UserStore
	logger     *slog.Logger
	bcryptCost int
}

// NewUserService creates a new UserService instance.
//
// Dependencies:
// - store: persistence for user records
// - logger: structured logger for operation logging
// - bcryptCost: bcrypt work factor; values outside bcrypt's range use DefaultBcryptCost
func NewUserService(store UserStore, logger *slog.Logger, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &userService{
		store:      store,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// =============================================================================
// Register Implementation
// =============================================================================

// Register creates a new user account.
//
// Flow:
// 1. Normalize email and name
// 2. Check if email already exists
// 3. Hash the password with bcrypt
// 4. Create the user record (a unique violation here is a lost race and
//    is reported the same way as step 2)
func (s *userService) Register(ctx context.Context, params domain.SignUpParams) (*domain.User, error) {
	const op = "UserService.Register"

	params.Email = normalizeEmail(params.Email)
	params.Name = normalizeName(params.Name)
	if params.Role == "" {
		params.Role = domain.RoleUser
	}

	_, err := s.store.GetUserByEmail(ctx, params.Email)
	if err == nil {
		return nil, domain.ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: check email: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}

	row, err := s.store.CreateUser(ctx, repository.CreateUserParams{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         string(params.Role),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("%s: create user: %w", op, err)
	}

	user := toDomainUser(row)
	s.logger.Info("user created", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// =============================================================================
// Authenticate Implementation
// =============================================================================

// Authenticate looks up the user by email and compares the password hash.
// Unknown email and wrong password produce the same error.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "UserService.Authenticate"

	row, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, invalidCredentials(op)
		}
		return nil, fmt.Errorf("%s: get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, invalidCredentials(op)
	}

	user := toDomainUser(row)
	s.logger.Info("user authenticated", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func invalidCredentials(op string) error {
	return domain.NewAuthError("Invalid email or password").WithOp(op).Wrap(domain.ErrInvalidCredentials)
}

// =============================================================================
// Profile CRUD
// =============================================================================

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const op = "UserService.GetByID"

	row, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound(op)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDomainUser(row), nil
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("UserService.List: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toDomainUser(row))
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id int64, params domain.UpdateUserParams) (*domain.User, error) {
	const op = "UserService.Update"

	arg := repository.UpdateUserParams{ID: id}
	if params.Name != nil {
		arg.Name = sql.NullString{String: normalizeName(*params.Name), Valid: true}
	}
	if params.Email != nil {
		arg.Email = sql.NullString{String: normalizeEmail(*params.Email), Valid: true}
	}
	if params.Role != nil {
		arg.Role = sql.NullString{String: string(*params.Role), Valid: true}
	}

	row, err := s.store.UpdateUser(ctx, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound(op)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := toDomainUser(row)
	s.logger.Info("user updated", "user_id", user.ID)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	const op = "UserService.Delete"

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return userNotFound(op)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func userNotFound(op string) error {
	return domain.NewNotFoundError("User not found").WithOp(op).Wrap(domain.ErrUserNotFound)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeName stores names in composed (NFC) form so "José" typed with a
// combining accent matches the precomposed spelling.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// toDomainUser converts a repository row. The password hash is kept for
// credential checks inside this package; handlers never serialize it.
func toDomainUser(u repository.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         domain.Role(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
