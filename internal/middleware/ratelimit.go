package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/organlink/internal/auth"
)

// Limiter decides whether one more hit for key is allowed.
// *ratelimit.FixedWindowLimiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MsgRateLimited is the 429 response message.
const MsgRateLimited = "Too many chat messages, please slow down"

// RateLimitPerUser limits requests per authenticated user. It must run after
// auth.RequireAuth; anonymous requests share the "anonymous" bucket.
//
// A limiter error (Redis down) rejects the request: the limiter fails closed.
func RateLimitPerUser(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				key = "anonymous"
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limiter unavailable",
					slog.String("user_id", key),
					slog.String("error", err.Error()),
				)
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"code":    "too_many_requests",
					"message": MsgRateLimited,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
