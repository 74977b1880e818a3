package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis.
const DefaultKeyPrefix = "partdesk:login:"

// takeScript checks the budget and increments in one step so concurrent instances cannot
// overshoot it. Returns {allowed, count, pttl}.
var takeScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
local max = tonumber(ARGV[1])
if n >= max then
  return {0, n, redis.call('PTTL', KEYS[1])}
end
n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, n, redis.call('PTTL', KEYS[1])}
`)

var refundScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`)

// Redis is a Limiter backed by a shared Redis instance.
type Redis struct {
	client redis.Scripter
	cfg    Config
	prefix string
}

// NewRedis creates a Redis backed limiter.
func NewRedis(client redis.Scripter, cfg Config, prefix string) (*Redis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Redis{client: client, cfg: cfg, prefix: prefix}, nil
}

// Take implements Limiter.
func (r *Redis) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, r.client, []string{r.prefix + key},
		r.cfg.MaxAttempts, r.cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit take: %w", err)
	}

	if len(res) != 3 { //nolint:mnd
		return Decision{}, fmt.Errorf("ratelimit take: unexpected reply %v", res)
	}

	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		ttl = r.cfg.Window
	}

	if res[0] == 0 {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true, Remaining: r.cfg.MaxAttempts - int(res[1])}, nil
}

// Refund implements Limiter.
func (r *Redis) Refund(ctx context.Context, key string) error {
	if err := refundScript.Run(ctx, r.client, []string{r.prefix + key}).Err(); err != nil {
		return fmt.Errorf("ratelimit refund: %w", err)
	}

	return nil
}

var _ Limiter = (*Redis)(nil)
