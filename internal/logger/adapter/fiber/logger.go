// Package fiber provides a zerolog access log middleware for fiber.
package fiber

import (
	"io"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/logger"
)

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// Output overrides the console writer. Used by tests.
	Output io.Writer

	// Subject returns the signed in username, empty for anonymous requests.
	Subject func(c *fiber.Ctx) string

	// CacheControlError max-age caching on chain errors.
	CacheControlError string

	// SkipPaths are not logged, e.g. health checks and /metrics.
	SkipPaths []string
}

// ConfigDefault is the default config for fiber.
var ConfigDefault = Config{ //nolint:gochecknoglobals
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

func accessWriters(cfg Config) []io.Writer {
	var writers []io.Writer

	if cfg.Config.File.Enabled {
		w, err := logger.NewRotatingFile(cfg.Config.File.Path, cfg.Config.File.Access, cfg.Config.File.Rotation)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.Config.File.Path).Msg("access log file disabled")
		} else {
			writers = append(writers, w)
		}
	}

	if !cfg.Config.Console.Enabled || !cfg.Config.EnableAccessLogToConsole {
		return writers
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Config.Console.UseConsoleWriter {
		out = zerolog.ConsoleWriter{
			Out:          out,
			TimeFormat:   zerolog.TimeFieldFormat,
			PartsExclude: []string{"level"},
		}
	}

	return append(writers, out)
}

// New creates a new fiber access logging middleware using zerolog.
func New(config ...Config) fiber.Handler {
	var (
		cfg        = configDefault(config...)
		writers    = accessWriters(cfg)
		once       sync.Once
		errHandler fiber.ErrorHandler
	)

	accessLog := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)

	if len(writers) == 0 {
		accessLog = zerolog.Nop()
	}

	return func(ctx *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(ctx) {
			return ctx.Next()
		}

		once.Do(func() {
			errHandler = ctx.App().ErrorHandler
		})

		start := time.Now()

		chainErr := ctx.Next()
		if chainErr != nil {
			if errH := errHandler(ctx, chainErr); errH != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck
				ctx.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start).Seconds()
		ctx.Response().Header.Set("X-Performance", strconv.FormatFloat(elapsed, 'f', 6, 64))

		if slices.Contains(cfg.SkipPaths, ctx.Path()) {
			return nil
		}

		// fasthttp normalizes the path, the access log wants it as sent.
		p := ctx.Path()
		if q := ctx.Request().URI().QueryString(); len(q) > 0 {
			p += "?" + string(q)
		}

		ev := accessLog.Log().
			Str("IP", ctx.IP()).
			Int("status", ctx.Response().StatusCode()).
			Float64("X-Performance", elapsed).
			Str("URI", p).
			Str("method", ctx.Method()).
			Bytes("host", ctx.Request().Host()).
			Str(fiber.HeaderXForwardedFor, ctx.Get(fiber.HeaderXForwardedFor)).
			Str(fiber.HeaderUserAgent, ctx.Get(fiber.HeaderUserAgent)).
			Str(fiber.HeaderReferer, ctx.Get(fiber.HeaderReferer))

		if cfg.Subject != nil {
			if sub := cfg.Subject(ctx); sub != "" {
				ev.Str("user", sub)
			}
		}

		if chainErr != nil {
			ev.Err(chainErr)
		}

		ev.Send()

		return nil
	}
}
