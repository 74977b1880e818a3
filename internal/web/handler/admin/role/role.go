// Package role provides the roles page and the role API. Every route is gated by its own
// roles.* permission before the role store is touched.
package role

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	rolestore "github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/handler/dashboard"
	"github.com/partdesk/partdesk/internal/web/navigation"
)

const (
	// Path is the roles page.
	Path = handler.RootPath + "admin/roles"

	// APIPath is the role collection endpoint.
	APIPath = handler.APIPath + "/roles"

	// PermissionsPath lists the permission catalog and templates.
	PermissionsPath = handler.APIPath + "/permissions"

	// TemplateList is the template for listing roles.
	TemplateList = "admin/roles"
)

// CreateRequest is the body of POST /api/roles. Template seeds the grants when
// Permissions is empty.
type CreateRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Template    string          `json:"template"`
	Permissions map[string]bool `json:"permissions"`
}

// UpdateRequest is the body of PUT /api/roles/:id.
type UpdateRequest struct {
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

// View is the JSON representation of a role.
type View struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	System      bool            `json:"system"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Catalog is the JSON body of GET /api/permissions.
type Catalog struct {
	Keys      []auth.Key            `json:"keys"`
	Modules   []string              `json:"modules"`
	Templates map[string][]auth.Key `json:"templates"`
}

// Service provides the role page and API.
type Service struct {
	handler.Service
	roles     *rolestore.Store
	validator *handler.Validator
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.roles = deps.Roles
	s.validator = handler.NewValidator()

	app.Get(Path, auth.RequirePage(auth.PermRolesView), s.Page)

	app.Get(PermissionsPath, auth.RequireAPI(auth.PermRolesView), s.Catalog)

	api := app.Group(APIPath)
	api.Get("/", auth.RequireAPI(auth.PermRolesView), s.List)
	api.Post("/", auth.RequireAPI(auth.PermRolesCreate), s.Create)
	api.Get("/:id", auth.RequireAPI(auth.PermRolesView), s.Get)
	api.Put("/:id", auth.RequireAPI(auth.PermRolesEdit), s.Update)
	api.Delete("/:id", auth.RequireAPI(auth.PermRolesDelete), s.Delete)

	return nil
}

// Page renders the role list.
func (s *Service) Page(c *fiber.Ctx) error {
	caps := auth.CapabilitiesFrom(c)

	nav := navigation.NewContext("Roles", "admin", "roles").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Roles", Path, true).
		WithMenu(caps)

	roles, err := s.roles.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Roles":      views(roles),
		"Templates":  auth.TemplateNames(),
	}, handler.BaseLayout)
}

// Catalog returns every registered key, the modules and the templates.
func (s *Service) Catalog(c *fiber.Ctx) error {
	return c.JSON(Catalog{
		Keys:      auth.AllKeys(),
		Modules:   auth.Modules(),
		Templates: auth.Templates(),
	})
}

// List returns all roles ordered by name.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := s.roles.List(c.UserContext())
	if err != nil {
		return handler.JSONError(c, err)
	}

	return c.JSON(views(roles))
}

// Get returns one role.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return handler.JSONError(c, err)
	}

	r, err := s.roles.Get(c.UserContext(), id)
	if err != nil {
		return handler.JSONError(c, err)
	}

	return c.JSON(viewOf(r))
}

// Create adds a custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in CreateRequest

	if ok, err := s.validator.BindJSON(c, &in); !ok {
		return err
	}

	perms := in.Permissions
	if len(perms) == 0 && in.Template != "" {
		grants, ok := auth.Template(in.Template)
		if !ok {
			return handler.JSONError(c, &auth.ValidationError{Reason: "unknown template " + in.Template})
		}

		perms = grants.Raw()
	}

	r, err := s.roles.Create(c.UserContext(), in.Name, in.Description, perms)
	if err != nil {
		return handler.JSONError(c, err)
	}

	log.Info().Uint64("user_id", auth.ClaimFrom(c).UserID()).Uint("role_id", r.Info().ID).
		Str("role", r.Info().Name).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(viewOf(r))
}

// Update replaces the grants of a role. Existing sessions keep their snapshot until they expire.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return handler.JSONError(c, err)
	}

	var in UpdateRequest

	if ok, errBind := s.validator.BindJSON(c, &in); !ok {
		return errBind
	}

	r, err := s.roles.Update(c.UserContext(), id, in.Permissions)
	if err != nil {
		return handler.JSONError(c, err)
	}

	log.Info().Uint64("user_id", auth.ClaimFrom(c).UserID()).Uint("role_id", id).Msg("role grants updated")

	return c.JSON(viewOf(r))
}

// Delete removes a custom role nobody is assigned to.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return handler.JSONError(c, err)
	}

	if err = s.roles.Delete(c.UserContext(), id); err != nil {
		return handler.JSONError(c, err)
	}

	log.Info().Uint64("user_id", auth.ClaimFrom(c).UserID()).Uint("role_id", id).Msg("role deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

func viewOf(r rolestore.Role) View {
	info := r.Info()

	return View{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		System:      rolestore.IsSystem(r),
		Permissions: info.Grants.Raw(),
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}
}

func views(roles []rolestore.Role) []View {
	out := make([]View, 0, len(roles))
	for _, r := range roles {
		out = append(out, viewOf(r))
	}

	return out
}
