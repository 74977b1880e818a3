package config

import (
	"time"

	"github.com/partdesk/partdesk/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	RateLimit RateLimit
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown in seconds
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Session settings for the signed session token.
type Session struct {
	ExpiryTime time.Duration
	CookieName string
	SigningKey string // HS256 key, at least 32 bytes
	Issuer     string
	Secure     bool // set the Secure flag on the session cookie

	// LoginTimeout bounds one login attempt; a lookup cut off by it does not count.
	LoginTimeout time.Duration
}

// RateLimit settings for the login throttle.
type RateLimit struct {
	Backend       string // memory or redis
	MaxAttempts   int
	Window        time.Duration
	SweepInterval time.Duration // memory backend only
	Redis         Redis
}

// Redis connection for the shared rate limit backend.
type Redis struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Seed settings for the first start on an empty database.
type Seed struct {
	AdminUsername string
	AdminPassword string
}
