// Package ratelimit throttles login attempts per identifier with a fixed window.
//
// Two stores implement Limiter: Memory for a single process and Redis for deployments
// that run more than one instance behind a load balancer.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget per window.
	DefaultMaxAttempts = 5
	// DefaultWindow is the length of one counting window.
	DefaultWindow = 15 * time.Minute
)

// ErrInvalidConfig is returned for a non-positive budget or window.
var ErrInvalidConfig = errors.New("ratelimit: max attempts and window must be positive")

// Config holds the attempt budget.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Validate fills defaults for zero values and rejects negative ones.
func (c *Config) Validate() error {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.Window == 0 {
		c.Window = DefaultWindow
	}

	if c.MaxAttempts < 0 || c.Window < 0 {
		return ErrInvalidConfig
	}

	return nil
}

// Decision is the outcome of Take.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts attempts per identifier.
type Limiter interface {
	// Take consumes one attempt. When the budget is exhausted the attempt is not
	// counted and the decision is not allowed.
	Take(ctx context.Context, key string) (Decision, error)
	// Refund gives back one attempt, for attempts that were aborted before they
	// could be decided.
	Refund(ctx context.Context, key string) error
}
