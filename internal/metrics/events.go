package metrics

import "strconv"

// Auth event names
const (
	EventSignUp  = "sign_up"
	EventSignIn  = "sign_in"
	EventSignOut = "sign_out"
)

// AuthSucceeded records a successful auth event
func AuthSucceeded(event string) {
	AuthEventsTotal.WithLabelValues(event, "success").Inc()
}

// AuthFailed records a failed auth event
func AuthFailed(event string) {
	AuthEventsTotal.WithLabelValues(event, "failure").Inc()
}

// ErrorWritten records an error response produced by the error translator
func ErrorWritten(code string, status int) {
	ErrorsTotal.WithLabelValues(code, strconv.Itoa(status)).Inc()
}

// RateLimited records a request rejected by the rate limiter
func RateLimited(path string) {
	RateLimitedTotal.WithLabelValues(normalizePath(path)).Inc()
}
