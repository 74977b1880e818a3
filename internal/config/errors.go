package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrSigningKeyTooShort error if webserver.session.signingkey is shorter than 32 bytes.
	ErrSigningKeyTooShort = errors.New("toml config webserver.session.signingkey must be at least 32 bytes")

	// ErrSessionExpiry error if webserver.session.expirytime is negative.
	ErrSessionExpiry = errors.New("toml config webserver.session.expirytime must be positive")

	// ErrLoginTimeout error if webserver.session.logintimeout is negative.
	ErrLoginTimeout = errors.New("toml config webserver.session.logintimeout must not be negative")

	// ErrUnknownRateLimitBackend error if ratelimit.backend is neither memory nor redis.
	ErrUnknownRateLimitBackend = errors.New("toml config ratelimit.backend must be memory or redis")

	// ErrRateLimitAttempts error if ratelimit.maxattempts or ratelimit.window is negative.
	ErrRateLimitAttempts = errors.New("toml config ratelimit.maxattempts and ratelimit.window must be positive")

	// ErrRedisAddr error if the redis backend is selected without an address.
	ErrRedisAddr = errors.New("toml config ratelimit.redis.addr can not be empty for the redis backend")

	// ErrUnknownDBEngine error if db.gormengine is not supported.
	ErrUnknownDBEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")
)
