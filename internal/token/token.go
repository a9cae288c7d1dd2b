// Package token issues and verifies signed session tokens.
//
// Tokens are HS256 JWTs carrying the user's id, email and role. The signing
// secret and lifetime are fixed at construction and never change afterwards.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/DukeRupert/acquisitions/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token's structure or signature is invalid.
	ErrMalformed = errors.New("token is malformed")

	// ErrExpired is returned when a well-formed token is past its expiry.
	ErrExpired = errors.New("token is expired")
)

// Config holds the process-wide token settings.
type Config struct {
	Secret   []byte
	Lifetime time.Duration
	Issuer   string // Optional; when set it is written and enforced
}

// Service signs and verifies session tokens.
type Service struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

type sessionClaims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates a Service. The secret must be non-empty and the lifetime
// positive.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.Lifetime)
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Service{
		secret:   secret,
		lifetime: cfg.Lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}, nil
}

// Lifetime returns how long issued tokens stay valid.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Sign encodes the identity in claims into a signed token. IssuedAt and
// ExpiresAt on the input are ignored; they are computed from the current time
// and the configured lifetime.
func (s *Service) Sign(claims domain.SessionClaims) (string, error) {
	now := s.now().UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID: claims.ID,
		Email:  claims.Email,
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", claims.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns its claims. Failures wrap ErrExpired when the
// token is past its expiry and ErrMalformed for every other defect.
func (s *Service) Verify(raw string) (domain.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var c sessionClaims
	parsed, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaims{}, fmt.Errorf("%w: %w", ErrExpired, err)
		}
		return domain.SessionClaims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !parsed.Valid || c.IssuedAt == nil {
		return domain.SessionClaims{}, ErrMalformed
	}

	return domain.SessionClaims{
		ID:        c.UserID,
		Email:     c.Email,
		Role:      domain.Role(c.Role),
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}, nil
}

// IsExpired reports whether err is an expired-token failure.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired) || errors.Is(err, jwt.ErrTokenExpired)
}

// IsMalformed reports whether err is a malformed-token failure.
func IsMalformed(err error) bool {
	if IsExpired(err) {
		return false
	}
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable)
}
