package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eyoab11/kuriftu/internal/metrics"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// SendRateLimiter throttles chat message and feedback submissions per user,
// backed by sliding one-minute counters in Redis.
type SendRateLimiter struct {
	redis  *store.RedisStore
	logger zerolog.Logger
	limit  int
	window time.Duration
}

// NewSendRateLimiter creates a limiter allowing limit sends per minute.
func NewSendRateLimiter(redis *store.RedisStore, logger zerolog.Logger, limit int) *SendRateLimiter {
	if limit <= 0 {
		limit = 30
	}
	return &SendRateLimiter{
		redis:  redis,
		logger: logger,
		limit:  limit,
		window: time.Minute,
	}
}

// Middleware enforces the limit. Must run after RequireAuth. A Redis
// failure lets the request through rather than blocking sends.
func (rl *SendRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		allowed, err := rl.redis.CheckSendLimit(r.Context(), user.ID.String(), rl.limit)
		if err != nil {
			rl.logger.Warn().Err(err).Msg("send rate check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RateLimitHits.WithLabelValues(r.URL.Path).Inc()
			w.Header().Set("Retry-After", "60")
			jsonError(w, http.StatusTooManyRequests, "too many sends, slow down")
			return
		}

		if err := rl.redis.IncrementSendLimit(r.Context(), user.ID.String(), rl.window); err != nil {
			rl.logger.Warn().Err(err).Msg("send rate increment failed")
		}

		next.ServeHTTP(w, r)
	})
}
