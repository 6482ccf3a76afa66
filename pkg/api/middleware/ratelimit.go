package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ExpressedAi/Sidechain/config"
	"github.com/ExpressedAi/Sidechain/pkg/api/response"
)

// RateLimit returns a middleware that applies a process-wide token-bucket
// limit to incoming requests.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				response.Error(w,
					http.StatusTooManyRequests,
					response.ErrCodeTooManyRequests,
					"Rate limit exceeded",
					GetRequestID(r.Context()),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
