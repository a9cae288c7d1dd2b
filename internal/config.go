package internal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/DukeRupert/acquisitions/internal/session"
)

// devJWTSecret signs sessions in development when JWT_SECRET is unset.
const devJWTSecret = "acquisitions-development-secret"

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Session tokens
	JWTSecret      string
	JWTExpiresIn   time.Duration
	JWTIssuer      string
	UsingDevSecret bool // JWT_SECRET was unset and the development secret is in use

	// Session cookie
	CookieSameSite http.SameSite

	// Front-end origin allowed to call the API with credentials
	CORSOrigin string

	BcryptCost int

	// Sign-up/sign-in attempts allowed per client IP per window
	RateLimitAuth   int
	RateLimitWindow time.Duration

	// Take the client IP from X-Forwarded-For/X-Real-IP. Enable only when a
	// reverse proxy overwrites those headers.
	TrustProxy bool

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     env.Int("PORT", 3000),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: env.Duration("JWT_EXPIRES_IN", 24*time.Hour),
		JWTIssuer:    getEnv("JWT_ISSUER", "acquisitions-api"),

		CookieSameSite: session.ParseSameSite(getEnv("COOKIE_SAME_SITE", "strict")),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:5173"),
		BcryptCost:     env.Int("BCRYPT_COST", 10),

		RateLimitAuth:   env.Int("RATE_LIMIT_AUTH", 10),
		RateLimitWindow: env.Duration("RATE_LIMIT_WINDOW", 15*time.Minute),
		TrustProxy:      env.Bool("TRUSTED_PROXY", false),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := env.Err(); err != nil {
		return nil, err
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required when ENV is %q", cfg.Env)
		}
		cfg.JWTSecret = devJWTSecret
		cfg.UsingDevSecret = true
	}

	if cfg.JWTExpiresIn <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES_IN must be positive, got: %s", cfg.JWTExpiresIn)
	}

	if cfg.RateLimitAuth < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_AUTH must be at least 1, got: %d", cfg.RateLimitAuth)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got: %s", cfg.RateLimitWindow)
	}

	// Browsers reject SameSite=None cookies without Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode && cfg.IsDevelopment() {
		return nil, fmt.Errorf("COOKIE_SAME_SITE=none requires a secure (non-development) environment")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envReader parses typed variables and keeps every parse failure, so a
// typo such as JWT_EXPIRES_IN=1d stops startup instead of using the default.
type envReader struct {
	errs []error
}

func (e *envReader) Int(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be an integer, got: %q", key, value))
		return fallback
	}
	return i
}

func (e *envReader) Duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be a duration such as 15m or 24h, got: %q", key, value))
		return fallback
	}
	return d
}

func (e *envReader) Bool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be true or false, got: %q", key, value))
		return fallback
	}
	return b
}

// Err joins the parse failures, or returns nil.
func (e *envReader) Err() error {
	return errors.Join(e.errs...)
}
