package app

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/stockdash/config"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

// InitRedis connects to cfg.Redis.Addr and pings it once.
func InitRedis(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// redisOpener is an indirection used by InitializeApp; overridden in tests.
var redisOpener = InitRedis

// newRateLimitStore picks the limiter backend.
//
//   - PerMinute <= 0: no limiter.
//   - Redis configured and reachable: shared fixed-window store.
//   - otherwise: in-process token buckets.
//
// The returned client is nil unless Redis is in use.
func newRateLimitStore(cfg config.Config) (ratelimit.Store, *redis.Client) {
	if cfg.RateLimit.PerMinute <= 0 {
		return nil, nil
	}
	if cfg.Redis.Addr != "" {
		client, err := redisOpener(cfg)
		if err == nil {
			return ratelimit.NewRedisStore(client, cfg.RateLimit.PerMinute), client
		}
		logger.L().Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, rate limiting in process")
	}
	return ratelimit.NewMemoryStore(cfg.RateLimit.PerMinute), nil
}
