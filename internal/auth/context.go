// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/acquisitions/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// claimsContextKey is the key used to store the verified session claims.
	claimsContextKey contextKey = "claims"
)

// GetClaims retrieves the verified session claims from the context.
//
// Returns nil if the request carries no valid session.
//
// Usage:
//
//	claims := auth.GetClaims(r.Context())
//	if claims == nil {
//	    // Handle unauthenticated request
//	}
func GetClaims(ctx context.Context) *domain.SessionClaims {
	claims, ok := ctx.Value(claimsContextKey).(*domain.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetClaimsFromRequest is a convenience wrapper around GetClaims.
func GetClaimsFromRequest(r *http.Request) *domain.SessionClaims {
	return GetClaims(r.Context())
}

// SetClaims stores verified session claims in the context.
//
// This is called by authentication middleware after verifying the session
// token.
func SetClaims(ctx context.Context, claims *domain.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
