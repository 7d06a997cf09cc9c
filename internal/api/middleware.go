package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/tabtrail/tabtrail/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that enforces rate limits
func RateLimitMiddleware(limiter *ratelimit.Limiter, requestsPerHour int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := getClientKey(r)

			// Check rate limit
			if !limiter.Allow(clientKey) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(requestsPerHour))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded for AI endpoints.",
				})
				return
			}

			// Add rate limit headers
			tokens := limiter.Tokens(clientKey)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(requestsPerHour))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(tokens)))

			// Request allowed, continue
			next.ServeHTTP(w, r)
		})
	}
}

// getClientKey identifies the caller for rate limiting purposes
func getClientKey(r *http.Request) string {
	if clientID := r.Header.Get("X-Client-ID"); clientID != "" {
		return clientID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
