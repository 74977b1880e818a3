// Package web wires the fiber application: templates, middleware and handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/config"
	accesslog "github.com/partdesk/partdesk/internal/logger/adapter/fiber"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/handler/account"
	"github.com/partdesk/partdesk/internal/web/handler/admin/role"
	"github.com/partdesk/partdesk/internal/web/handler/admin/user"
	"github.com/partdesk/partdesk/internal/web/handler/dashboard"
	"github.com/partdesk/partdesk/internal/web/handler/login"
	"github.com/partdesk/partdesk/internal/web/handler/logout"
	"github.com/partdesk/partdesk/internal/web/handler/unauthorized"
	authmw "github.com/partdesk/partdesk/internal/web/middleware/auth"
)

const (
	// HealthPath answers 503 while the service drains.
	HealthPath = "/healthz"

	// MetricsPath exposes the Prometheus registry.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it stops.
func (s *Service) Start(addr string) error {
	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) (*Service, error) {
	if !deps.Valid() {
		return nil, errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	cfg := deps.Cfg

	templateEngine := html.NewFileSystem(subFS(embeddedTemplates, "templates"), ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("join", strings.Join)

	service := &Service{cfg: cfg, fastShutDown: cfg.DevMode}
	service.alive.Store(true)

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:    8192,
			AppName:           cfg.Title,
			CaseSensitive:     true,
			Immutable:         true,
			Views:             templateEngine,
			PassLocalsToViews: true,
			ErrorHandler:      service.errorHandler,
		},
	)
	service.App = app

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:    cfg.Log,
		Subject:   authmw.Subject,
		SkipPaths: []string{HealthPath, MetricsPath},
	}))

	app.Get(HealthPath, service.health)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root: subFS(embeddedStatic, "static"),
			},
		),
	)

	app.Use(authmw.New(cfg, deps.Issuer.Tokens()))

	services := []handler.Service{
		new(login.Service),
		new(logout.Service),
		new(dashboard.Service),
		new(unauthorized.Service),
		new(account.Service),
		new(role.Service),
		new(user.Service),
	}

	for _, h := range services {
		if err := h.Init(app, deps); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(dashboard.Path)
	})

	return service, nil
}

func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("ok")
}

// errorHandler answers unexpected errors with a generic message. Details are only shown in dev mode.
func (s *Service) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	msg := utils.StatusMessage(code)

	switch {
	case s.cfg.DevMode:
		msg = err.Error()
	case fe != nil && code < fiber.StatusInternalServerError:
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}

	if strings.HasPrefix(c.Path(), handler.APIPath) {
		return c.Status(code).JSON(handler.ErrorResponse{Error: msg})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.Status(code).SendString(msg)
}
