package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit guards an endpoint with a single shared limiter. The cron
// endpoints have one legitimate caller, so per-client bookkeeping is
// not needed; an overlapping burst of triggers gets a 429 instead of a
// second concurrent run.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
