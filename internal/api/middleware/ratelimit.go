package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/privacyguard/privacyguard/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// Default rate limit configurations.
var (
	// AccessRateLimit applies to access-code logins (10 req/min per IP).
	AccessRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// SimulatorRateLimit applies to simulator calls (120 req/min per session).
	SimulatorRateLimit = RateLimitConfig{RequestLimit: 120, WindowLength: time.Minute}

	// ContentRateLimit applies to public content (60 req/min per IP).
	ContentRateLimit = RateLimitConfig{RequestLimit: 60, WindowLength: time.Minute}
)

// RateLimitByIP creates a rate limiter keyed on the client IP, as resolved by
// chi's RealIP middleware.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

// RateLimitBySession creates a rate limiter keyed on the authenticated
// session, falling back to the client IP.
func RateLimitBySession(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyBySessionOrIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

func keyBySessionOrIP(r *http.Request) (string, error) {
	if sessionID := GetSessionID(r.Context()); sessionID != "" {
		return "session:" + sessionID, nil
	}
	return httprate.KeyByRealIP(r)
}

// rateLimitExceeded writes a 429 problem with a Retry-After of one window.
func rateLimitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewTooManyRequests(GetRequestID(r.Context()), "rate limit exceeded, please try again later").
			WithInstance(r.URL.Path).
			Write(w)
	}
}
