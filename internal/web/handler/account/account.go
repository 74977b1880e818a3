// Package account exposes the client-visible session for UI gating.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/web/handler"
)

// SessionPath returns the client claim of the caller.
const SessionPath = handler.APIPath + "/session"

// Service is the account handler service.
type Service struct {
	handler.Service
}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	app.Get(SessionPath, auth.RequireSession(), s.Session)

	return nil
}

// Session returns identity, grants and expiry of the caller's claim. The copy is for
// presentation only, the server re-checks every gated call.
func (s *Service) Session(c *fiber.Ctx) error {
	return c.JSON(auth.ClaimFrom(c).Client())
}
