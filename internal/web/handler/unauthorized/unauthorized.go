// Package unauthorized renders the page shown when a signed in user lacks a permission.
package unauthorized

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/navigation"
)

// TemplateName is the name of the unauthorized template.
const TemplateName = "unauthorized"

// Service is the unauthorized handler service.
type Service struct {
	handler.Service
}

// Init registers the route.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	app.Get(auth.UnauthorizedPath, s.Get)

	return nil
}

// Get renders the page with status 403.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Access denied", "", "").WithMenu(auth.CapabilitiesFrom(c))

	return c.Status(fiber.StatusForbidden).Render(TemplateName, fiber.Map{
		"Navigation": nav,
	}, handler.BaseLayout)
}
