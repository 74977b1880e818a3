// Package daemon assembles the application: database, permission catalog, login limiter,
// session issuer and web service.
package daemon

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/controller/user"
	"github.com/partdesk/partdesk/internal/web"
	"github.com/partdesk/partdesk/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg          *config.Config
	db           *gorm.DB
	issuer       *auth.Issuer
	webService   *web.Service
	cancel       context.CancelFunc
	closeLimiter func() error
}

// New prepares the daemon. It refuses to start on an inconsistent permission catalog.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := auth.VerifyRegistry(); err != nil {
		return nil, errors.Wrap(err, "permission registry is inconsistent")
	}

	ctx, cancel := context.WithCancel(context.Background())

	d, err := assemble(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	d.cancel = cancel

	return d, nil
}

// openDB is replaced in tests to observe the pool.
var openDB = OpenDB //nolint:gochecknoglobals

func assemble(ctx context.Context, cfg *config.Config) (_ *Daemon, err error) {
	db, err := openDB(cfg.DB)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			closeDB(db)
		}
	}()

	roles, err := role.New(db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create role store")
	}

	users, err := user.New(db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user store")
	}

	if err = Migrate(ctx, db, roles); err != nil {
		return nil, err
	}

	if err = Seed(ctx, cfg.Seed, roles, users); err != nil {
		return nil, err
	}

	limiter, closeLimiter, err := NewLimiter(ctx, cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		SigningKey: []byte(cfg.Webserver.Session.SigningKey),
		Issuer:     cfg.Webserver.Session.Issuer,
		TTL:        cfg.Webserver.Session.ExpiryTime,
	})
	if err != nil {
		_ = closeLimiter()
		return nil, errors.Wrap(err, "failed to create token manager")
	}

	issuer := auth.NewIssuer(users, limiter, tokens,
		auth.WithLoginTimeout(cfg.Webserver.Session.LoginTimeout))

	webService, err := web.New(&handler.Deps{
		Cfg:    cfg,
		Issuer: issuer,
		Roles:  roles,
		Users:  users,
	})
	if err != nil {
		_ = closeLimiter()
		return nil, errors.Wrap(err, "failed to create web service")
	}

	log.Info().
		Str("db", cfg.DB.GormEngine).
		Str("rate_limit", cfg.RateLimit.Backend).
		Int("permissions", len(auth.AllKeys())).
		Dur("session_ttl", tokens.TTL()).
		Msg("daemon ready")

	return &Daemon{
		cfg:          cfg,
		db:           db,
		issuer:       issuer,
		webService:   webService,
		closeLimiter: closeLimiter,
	}, nil
}

// Start serves until SIGINT or SIGTERM, then releases every resource.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))

	d.Close()

	return err
}

// Close stops background work and closes the connections.
func (d *Daemon) Close() {
	d.cancel()
	d.issuer.Wait()

	if err := d.closeLimiter(); err != nil {
		log.Error().Err(err).Msg("failed to close rate limit backend")
	}

	closeDB(d.db)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
