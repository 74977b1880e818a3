// Package logout ends the browser session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/session"
)

// Path is the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = deps.Cfg

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout clears the session cookie. Tokens are stateless, a copied token stays valid until it expires.
func (s *Service) Logout(c *fiber.Ctx) error {
	if claim := auth.ClaimFrom(c); claim != nil {
		log.Info().Uint64("user_id", claim.UserID()).Str("token_id", claim.TokenID()).Msg("user logged out")
	}

	session.ClearCookie(c, s.cfg)

	return c.Redirect(auth.LoginPath)
}
