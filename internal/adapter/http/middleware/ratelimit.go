package middleware

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/go-chi/httprate"
	httprateredis "github.com/go-chi/httprate-redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCounter shares the counts of the limiter called name between every
// service replica. While Redis is unreachable counting falls back to the
// local process.
func RedisCounter(client *redis.Client, name string) httprate.Option {
	return httprateredis.WithRedisLimitCounter(&httprateredis.Config{
		Client:    client,
		PrefixKey: "ratelimit:" + name,
	})
}

// RateLimiter bounds how often one caller may hit a group of routes.
type RateLimiter struct {
	name    string
	message string
	limiter *httprate.RateLimiter
	logger  *logger.Logger
}

// NewRateLimiter allows limit requests per caller within a sliding window.
// A limit of zero or less disables it. Without a counter option the counts
// are kept in memory.
func NewRateLimiter(name string, limit int, window time.Duration, message string, log *logger.Logger, opts ...httprate.Option) *RateLimiter {
	l := &RateLimiter{
		name:    name,
		message: message,
		logger:  log.Named("RateLimiter").With(zap.String("limiter", name)),
	}
	if limit <= 0 {
		return l
	}
	opts = append([]httprate.Option{
		httprate.WithKeyFuncs(subjectKey),
		httprate.WithLimitHandler(l.reject),
		httprate.WithErrorHandler(l.fail),
	}, opts...)
	l.limiter = httprate.NewRateLimiter(limit, window, opts...)
	return l
}

// subjectKey identifies the caller: the authenticated actor when known,
// otherwise the client address.
func subjectKey(r *http.Request) (string, error) {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "user:" + actor.ID, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

func (l *RateLimiter) reject(w http.ResponseWriter, r *http.Request) {
	key, _ := subjectKey(r)
	l.logger.Info("Rate limit exceeded", zap.String("subject", key), zap.String("path", r.URL.Path))
	writeMessage(w, http.StatusTooManyRequests, l.message)
}

func (l *RateLimiter) fail(w http.ResponseWriter, r *http.Request, err error) {
	l.logger.Error("Rate limit check failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

// Handler answers 429 once the caller has used up the window.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if l.limiter == nil {
		return next
	}
	return l.limiter.Handler(next)
}
