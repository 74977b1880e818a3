// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the environment variable holding a JSON document merged over main.toml.
const EnvConfigJSON = "PARTDESK_CONFIG_JSON"

// Rate limit backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

const (
	envPrefix = "PARTDESK"
	redacted  = "********"

	invalidConfigMessage = "invalid config"
	minSigningKeyLen     = 32

	defaultShutDownTime   = 5
	defaultCookieName     = "partdesk_session"
	defaultIssuer         = "partdesk"
	defaultSessionExpiry  = 8 * time.Hour
	defaultLoginTimeout   = 5 * time.Second
	defaultMaxAttempts    = 5
	defaultWindow         = 15 * time.Minute
	defaultSweepInterval  = time.Minute
	defaultRedisKeyPrefix = "partdesk:login:"
	defaultSQLiteDatabase = "partdesk.db"
	defaultAdminUsername  = "admin"
)

// ReadConfig reads main.toml from path, merges the PARTDESK_CONFIG_JSON override and
// validates the result. Environment variables like PARTDESK_WEBSERVER_PORT override
// keys present in the file.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if raw := os.Getenv(EnvConfigJSON); raw != "" {
		if err := mergeJSON(v, raw); err != nil {
			return Config{}, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	return c, validate(&c)
}

func mergeJSON(v *viper.Viper, raw string) error {
	override := viper.New()
	override.SetConfigType("json")

	if err := override.ReadConfig(strings.NewReader(raw)); err != nil {
		return errors.Wrap(err, "failed to read "+EnvConfigJSON)
	}

	return errors.Wrap(v.MergeConfigMap(override.AllSettings()), "failed to merge "+EnvConfigJSON)
}

// Redacted returns a copy with secrets masked, for dumps and logs.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}

	mask(&c.DB.Password)
	mask(&c.Webserver.Session.SigningKey)
	mask(&c.RateLimit.Redis.Password)
	mask(&c.Seed.AdminPassword)

	return c
}

// DumpConfig config as TOML String. Secrets are masked.
func DumpConfig(c *Config) (string, error) {
	out, err := toml.Marshal(c.Redacted())
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String. Secrets are masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c.Redacted()); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without and fills defaults.
func validate(c *Config) error {
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidConfigMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidConfigMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if err := validateSession(&c.Webserver.Session); err != nil {
		return errors.Wrap(err, invalidConfigMessage)
	}

	if err := validateRateLimit(&c.RateLimit); err != nil {
		return errors.Wrap(err, invalidConfigMessage)
	}

	if err := validateDB(&c.DB); err != nil {
		return errors.Wrap(err, invalidConfigMessage)
	}

	if c.Seed.AdminUsername == "" {
		c.Seed.AdminUsername = defaultAdminUsername
	}

	return nil
}

func validateSession(s *Session) error {
	if len(s.SigningKey) < minSigningKeyLen {
		return ErrSigningKeyTooShort
	}

	switch {
	case s.ExpiryTime < 0:
		return ErrSessionExpiry
	case s.ExpiryTime == 0:
		s.ExpiryTime = defaultSessionExpiry
	}

	switch {
	case s.LoginTimeout < 0:
		return ErrLoginTimeout
	case s.LoginTimeout == 0:
		s.LoginTimeout = defaultLoginTimeout
	}

	if s.CookieName == "" {
		s.CookieName = defaultCookieName
	}

	if s.Issuer == "" {
		s.Issuer = defaultIssuer
	}

	return nil
}

func validateRateLimit(r *RateLimit) error {
	r.Backend = strings.ToLower(r.Backend)

	switch r.Backend {
	case "":
		r.Backend = RateLimitMemory
	case RateLimitMemory:
	case RateLimitRedis:
		if r.Redis.Addr == "" {
			return ErrRedisAddr
		}
	default:
		return ErrUnknownRateLimitBackend
	}

	if r.MaxAttempts < 0 || r.Window < 0 || r.SweepInterval < 0 {
		return ErrRateLimitAttempts
	}

	if r.MaxAttempts == 0 {
		r.MaxAttempts = defaultMaxAttempts
	}

	if r.Window == 0 {
		r.Window = defaultWindow
	}

	if r.SweepInterval == 0 {
		r.SweepInterval = defaultSweepInterval
	}

	if r.Redis.KeyPrefix == "" {
		r.Redis.KeyPrefix = defaultRedisKeyPrefix
	}

	return nil
}

func validateDB(d *DB) error {
	d.GormEngine = strings.ToLower(d.GormEngine)

	switch d.GormEngine {
	case EngineMySQL, EnginePostgres:
	case "", EngineSQLite:
		d.GormEngine = EngineSQLite
		if d.Name == "" {
			d.Name = defaultSQLiteDatabase
		}
	default:
		return ErrUnknownDBEngine
	}

	return nil
}
