package session

import (
	"errors"
	"net/http"
	"time"
)

// ErrNoCookie is returned by Read when the request carries no usable cookie.
var ErrNoCookie = errors.New("session cookie not present")

// Transport writes and reads session cookies with a fixed attribute policy.
type Transport struct {
	opts Options
	now  func() time.Time
}

// NewTransport creates a Transport with the given attribute policy.
func NewTransport(opts Options) *Transport {
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteStrictMode
	}
	// Browsers reject SameSite=None without Secure.
	if opts.SameSite == http.SameSiteNoneMode {
		opts.Secure = true
	}
	return &Transport{opts: opts, now: time.Now}
}

// Set attaches a cookie carrying value.
//
// Cookie Settings:
// - HttpOnly: true - Prevents JavaScript access (XSS protection)
// - Secure: configurable - Set true in production (HTTPS only)
// - SameSite: configurable - Strict unless configured otherwise
// - Path: / - Cookie sent with all requests
// - MaxAge/Expires: the configured lifetime
func (t *Transport) Set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     CookiePath,
		MaxAge:   int(t.opts.MaxAge.Seconds()),
		Expires:  t.now().Add(t.opts.MaxAge),
		HttpOnly: true,
		Secure:   t.opts.Secure,
		SameSite: t.opts.SameSite,
	})
}

// Clear removes the cookie from the client by sending an empty value with an
// expiry in the past.
func (t *Transport) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1, // Delete immediately
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   t.opts.Secure,
		SameSite: t.opts.SameSite,
	})
}

// Read returns the raw value of the named cookie.
func (t *Transport) Read(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", ErrNoCookie
	}
	return c.Value, nil
}
