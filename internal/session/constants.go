// Package session provides the session cookie transport shared by the
// handler and middleware packages.
//
// The transport never interprets the token it carries; signing and
// verification belong to the token package.
package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "token"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"
)

// ParseSameSite maps a config value to an http.SameSite policy.
// Unknown values fall back to Strict.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// Options is the cookie attribute policy.
type Options struct {
	Secure   bool          // Set true outside development (HTTPS only)
	SameSite http.SameSite // Defaults to Strict when zero
	MaxAge   time.Duration // Should match the token lifetime
}
