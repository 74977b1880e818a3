// Package user provides the user account API of the admin area.
package user

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	userstore "github.com/partdesk/partdesk/internal/db/controller/user"
	"github.com/partdesk/partdesk/internal/db/models"
	"github.com/partdesk/partdesk/internal/web/handler"
)

// APIPath is the user collection endpoint.
const APIPath = handler.APIPath + "/users"

// CreateRequest is the body of POST /api/users.
type CreateRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	RoleID      uint   `json:"roleId" validate:"required"`
	Active      bool   `json:"active"`
}

// View is the JSON representation of a user. The password hash never leaves the server.
type View struct {
	ID          uint64     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	Active      bool       `json:"active"`
	RoleID      uint       `json:"roleId"`
	RoleName    string     `json:"roleName"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// Service provides the user API.
type Service struct {
	handler.Service
	users     *userstore.Store
	roles     *role.Store
	validator *handler.Validator
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.users = deps.Users
	s.roles = deps.Roles
	s.validator = handler.NewValidator()

	app.Get(APIPath, auth.RequireAPI(auth.PermUsersView), s.List)
	app.Post(APIPath, auth.RequireAPI(auth.PermUsersCreate), s.Create)

	return nil
}

// List returns all users ordered by username.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.users.List(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]View, 0, len(users))
	for i := range users {
		out = append(out, viewOf(&users[i], users[i].Role.Name))
	}

	return c.JSON(out)
}

// Create adds a user with an existing role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in CreateRequest

	if ok, err := s.validator.BindJSON(c, &in); !ok {
		return err
	}

	r, err := s.roles.Get(c.UserContext(), in.RoleID)
	if errors.Is(err, role.ErrRoleNotFound) {
		return handler.JSONError(c, &auth.ValidationError{Reason: "role does not exist"})
	}

	if err != nil {
		return err
	}

	u, err := s.users.Create(c.UserContext(), userstore.NewUser{
		Username:    in.Username,
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Password:    in.Password,
		RoleID:      in.RoleID,
		Active:      in.Active,
	})
	if err != nil {
		return handler.JSONError(c, err)
	}

	log.Info().Uint64("user_id", auth.ClaimFrom(c).UserID()).Uint64("created_user_id", u.ID).
		Str("role", r.Info().Name).Msg("user created")

	return c.Status(fiber.StatusCreated).JSON(viewOf(u, r.Info().Name))
}

func viewOf(u *models.User, roleName string) View {
	return View{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Active:      u.Active,
		RoleID:      u.RoleID,
		RoleName:    roleName,
		LastLoginAt: u.LastLoginAt,
	}
}
