package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/danschewy/townhall/internal/metrics"
)

// RateLimit defines a fixed-window limit for an endpoint.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter implements fixed-window rate limiting keyed by client IP, with
// counters in Redis so limits hold across instances.
type RateLimiter struct {
	client *redis.Client
	logger zerolog.Logger
	limits map[string]RateLimit // "METHOD /normalized/path" -> limit
}

// NewRateLimiter creates a rate limiter. A nil client disables limiting
// (in-memory deployments).
func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
		limits: map[string]RateLimit{
			"POST /rooms":             {20, time.Hour},
			"POST /rooms/:code/join":  {30, time.Minute},
			"POST /rooms/:code/leave": {30, time.Minute},
			"POST /rooms/:code/audio": {30, time.Minute},
			"GET /rooms/:code/poll":   {240, time.Minute},
		},
	}
}

// Middleware enforces the limit table. Unlisted endpoints pass through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		endpoint := r.Method + " " + NormalizePath(r.URL.Path)
		limit, ok := rl.limits[endpoint]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", endpoint, realIP(r))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			// Fail open: limiting is protection, not correctness.
			rl.logger.Warn().Err(err).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, limit.Window)
		}

		if count > int64(limit.Requests) {
			metrics.RateLimitHits.WithLabelValues(endpoint).Inc()
			rl.logger.Warn().
				Str("endpoint", endpoint).
				Str("ip", realIP(r)).
				Int64("count", count).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// realIP returns the client address set by chi's RealIP middleware.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
