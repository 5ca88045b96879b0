package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints (5 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 5}
}

// DefaultAttemptRateLimit bounds attempt reports from a single user's
// extension and agent together.
func DefaultAttemptRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 120}
}

// DefaultAPIRateLimit applies to the rest of the authenticated API.
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 300}
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// userKey keys authenticated requests by user id and falls back to the
// client IP when no claims are present.
func userKey(r *http.Request) (string, error) {
	if claims := auth.GetUserFromContext(r); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID, nil
	}
	ip, err := httprate.KeyByRealIP(r)
	return "ip:" + ip, err
}

// RateLimitByUser rate limits per authenticated user. It must run after the
// auth middleware.
func RateLimitByUser(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(userKey),
		httprate.WithLimitHandler(limitExceeded),
	)
}
