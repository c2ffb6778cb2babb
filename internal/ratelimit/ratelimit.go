// Package ratelimit decides whether a client may issue another request.
//
// MemoryStore keeps one token bucket per client in process. RedisStore counts
// requests in a shared fixed window so several API replicas enforce one limit.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Store reports whether key may proceed now.
type Store interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore is a per-key token bucket refilled at perMinute/60 tokens per second.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore allows bursts of up to perMinute requests per key.
func NewMemoryStore(perMinute int) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		idleTTL: 3 * time.Minute,
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket. Buckets idle longer than idleTTL are swept.
func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.idleTTL {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idleTTL {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Len is the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisStore counts requests per key in fixed windows stored in Redis.
type RedisStore struct {
	client counter
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisStore allows perMinute requests per key per wall-clock minute.
func NewRedisStore(client redis.Cmdable, perMinute int) *RedisStore {
	return &RedisStore{
		client: client,
		limit:  int64(perMinute),
		window: time.Minute,
		prefix: "stockdash:ratelimit:",
		now:    time.Now,
	}
}

// Allow counts the request in key's current minute window and reports whether it is within the limit.
func (s *RedisStore) Allow(ctx context.Context, key string) (bool, error) {
	slot := s.now().UTC().Truncate(s.window).Unix()
	k := fmt.Sprintf("%s%s:%d", s.prefix, key, slot)

	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, s.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= s.limit, nil
}
