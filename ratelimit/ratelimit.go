package ratelimit

import (
	"context"
	"crypto/sha512"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"guildpass/constants"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Represents a named bucket, each bucket keeps its own counters
type Bucket struct {
	BucketName string

	Requests int
	Time     time.Duration

	// Whether or not to just bypass the ratelimit altogether
	Bypass bool
}

// Counter increments a fixed window counter. The window starts with the first hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type RedisCounter struct {
	Redis *redis.Client
}

func (c RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := c.Redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	return incr.Val(), ttl.Val(), nil
}

type Limiter struct {
	Counter Counter
	Bucket  Bucket
	Logger  *zap.Logger
}

// New returns a redis backed limiter, nil when rdb is nil or reqs is 0
func New(rdb *redis.Client, bucket Bucket, logger *zap.Logger) *Limiter {
	if rdb == nil || bucket.Requests <= 0 {
		return nil
	}

	return &Limiter{Counter: RedisCounter{Redis: rdb}, Bucket: bucket, Logger: logger}
}

// ClientID identifies the caller by RemoteAddr, which middleware.RealIP has
// already resolved from trusted proxy headers. For user privacy the ip is hashed.
func ClientID(r *http.Request) string {
	ip := r.RemoteAddr

	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	hasher := sha512.New()
	hasher.Write([]byte(ip))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Allow counts the request and writes a 429 when the bucket is exhausted.
// Counter failures let the request through.
func (l *Limiter) Allow(w http.ResponseWriter, r *http.Request) bool {
	if l.Bucket.Bypass {
		return true
	}

	rlKey := "rl:" + ClientID(r) + "-" + l.Bucket.BucketName

	count, ttl, err := l.Counter.Hit(r.Context(), rlKey, l.Bucket.Time)

	if err != nil {
		if l.Logger != nil {
			l.Logger.Error("Ratelimit counter failed", zap.Error(err), zap.String("bucket", l.Bucket.BucketName))
		}
		return true
	}

	if count > int64(l.Bucket.Requests) {
		if ttl < 0 {
			ttl = l.Bucket.Time
		}

		w.Header().Set("Retry-After", strconv.FormatFloat(ttl.Seconds(), 'g', -1, 64))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(constants.Ratelimited))

		return false
	}

	w.Header().Set("X-Ratelimit-Req-Made", strconv.FormatInt(count, 10))

	return true
}

// Middleware wraps Allow. A nil limiter passes everything through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}
