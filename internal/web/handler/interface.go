package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/controller/user"
)

// Deps bundles what handlers need from the daemon.
type Deps struct {
	Cfg    *config.Config
	Issuer *auth.Issuer
	Roles  *role.Store
	Users  *user.Store
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Issuer != nil && d.Roles != nil && d.Users != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
