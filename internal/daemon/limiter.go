package daemon

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/ratelimit"
)

const redisPingTimeout = 5 * time.Second

// NewLimiter builds the configured login limiter. The memory sweeper stops with ctx.
// The returned close function releases the redis connection.
func NewLimiter(ctx context.Context, cfg config.RateLimit) (ratelimit.Limiter, func() error, error) {
	rlCfg := ratelimit.Config{MaxAttempts: cfg.MaxAttempts, Window: cfg.Window}

	if cfg.Backend != config.RateLimitRedis {
		mem, err := ratelimit.NewMemory(rlCfg)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create memory limiter")
		}

		mem.StartSweeper(ctx, cfg.SweepInterval)

		return mem, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrapf(err, "redis rate limit backend %s unreachable", cfg.Redis.Addr)
	}

	rl, err := ratelimit.NewRedis(client, rlCfg, cfg.Redis.KeyPrefix)
	if err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "failed to create redis limiter")
	}

	return rl, client.Close, nil
}
