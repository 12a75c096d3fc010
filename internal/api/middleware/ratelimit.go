package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	redisplatform "github.com/phrazzld/taskmanager-api/internal/platform/redis"
)

// MsgTooManyRequests is the body of a 429 response.
const MsgTooManyRequests = "Too many requests from this IP, please try again later."

// Limiter decides whether one more request fits in a key's window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*redisplatform.RateLimitResult, error)
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

// NewRateLimiter allows limit requests per window for every client IP.
func NewRateLimiter(limiter Limiter, limit int, window time.Duration, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  log.With("component", "rate_limiter"),
	}
}

// Handler enforces the limit. Limiter failures let the request through.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIP(r)

		result, err := rl.limiter.Allow(r.Context(), clientIP, rl.limit, rl.window)
		if err != nil {
			logger.FromContextOrDefault(r.Context(), rl.logger).Error("rate limit check failed",
				"client_ip", clientIP,
				"error", err)
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, MsgTooManyRequests, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. Behind a trusted proxy, chi's
// RealIP has already replaced it with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
