package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type limiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type RateLimiter struct {
	store limiterStore
}

// NewRateLimiter keeps a token bucket per client IP in process memory.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: newMemoryStore(limit, window)}
}

// NewRedisRateLimiter shares a fixed-window counter per client IP across replicas.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: &redisStore{client: client, limit: limit, window: window}}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		allowed, err := rl.store.Allow(r.Context(), key)
		if err != nil {
			// fail open
			slog.Warn("rate limiter unavailable", "client", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type memoryStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

func newMemoryStore(limit int, window time.Duration) *memoryStore {
	s := &memoryStore{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			s.mu.Lock()
			for ip, v := range s.visitors {
				if time.Since(v.lastSeen) > window {
					delete(s.visitors, ip)
				}
			}
			s.mu.Unlock()
		}
	}()

	return s
}

func (s *memoryStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(s.window/time.Duration(s.limit)), s.limit)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow(), nil
}

type redisStore struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func (s *redisStore) Allow(ctx context.Context, key string) (bool, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().UnixNano()/int64(s.window))

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() <= int64(s.limit), nil
}
