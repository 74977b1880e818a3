// Package dashboard renders the landing page with the modules the user may access.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard"
)

// ActionAccess is one action of a module and whether it is granted.
type ActionAccess struct {
	Action  string
	Granted bool
}

// ModuleAccess lists the actions of a module for the access overview.
type ModuleAccess struct {
	Module  string
	Actions []ActionAccess
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	app.Get(Path, auth.RequirePage(auth.PermDashboardView), s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	caps := auth.CapabilitiesFrom(c)

	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true).
		WithMenu(caps)

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"User":       auth.ClaimFrom(c).Client(),
		"Modules":    Access(caps),
	}, handler.BaseLayout)
}

// Access returns every module with at least one granted action.
func Access(caps auth.Capabilities) []ModuleAccess {
	byModule := make(map[string][]string)
	for _, k := range auth.AllKeys() {
		byModule[k.Module()] = append(byModule[k.Module()], string(k))
	}

	var out []ModuleAccess

	for _, module := range auth.Modules() {
		keys := byModule[module]
		if !caps.CanAny(keys...) {
			continue
		}

		m := ModuleAccess{Module: module}
		for _, k := range keys {
			m.Actions = append(m.Actions, ActionAccess{Action: auth.Key(k).Action(), Granted: caps.Can(k)})
		}

		out = append(out, m)
	}

	return out
}
