// Package login provides the form login page and the JSON login endpoint.
package login

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/web/handler"
	"github.com/partdesk/partdesk/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = auth.LoginPath

	// APIPath is the JSON login endpoint for API clients.
	APIPath = handler.APIPath + "/auth/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"

	successRedirect = "/dashboard"
)

// ErrInvalidFormData is shown when the login form is incomplete.
var ErrInvalidFormData = errors.New("please enter username and password")

// Credentials is the login form and JSON body.
type Credentials struct {
	Username string `form:"username" json:"username" validate:"required,max=100"`
	Password string `form:"password" json:"password" validate:"required,max=1024"`
}

// TokenResponse is returned by the JSON login.
type TokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Session   auth.ClientClaim `json:"session"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	issuer    *auth.Issuer
	validator *handler.Validator
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = deps.Cfg
	s.issuer = deps.Issuer
	s.validator = handler.NewValidator()

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)
	app.Post(APIPath, s.PostAPI)

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{"Title": s.cfg.Title, "Username": ""}, handler.BaseLayout)
}

// Post handles the login form submission and sets the session cookie.
func (s *Service) Post(c *fiber.Ctx) error {
	var in Credentials

	if err := c.BodyParser(&in); err != nil || s.validator.Struct(&in) != nil {
		return s.renderError(c, fiber.StatusBadRequest, in.Username, ErrInvalidFormData.Error())
	}

	sess, err := s.issuer.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		status, msg, errMap := mapLoginError(c, err)
		if errMap != nil {
			return errMap
		}

		return s.renderError(c, status, in.Username, msg)
	}

	session.SetCookie(c, s.cfg, sess.Token, sess.Claim.ExpiresAt())

	return c.Redirect(successRedirect)
}

// PostAPI handles the JSON login and returns a bearer token.
func (s *Service) PostAPI(c *fiber.Ctx) error {
	var in Credentials

	if ok, err := s.validator.BindJSON(c, &in); !ok {
		return err
	}

	sess, err := s.issuer.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		status, msg, errMap := mapLoginError(c, err)
		if errMap != nil {
			return errMap
		}

		return c.Status(status).JSON(handler.ErrorResponse{Error: msg})
	}

	return c.JSON(TokenResponse{
		Token:     sess.Token,
		ExpiresAt: sess.Claim.ExpiresAt(),
		Session:   sess.Claim.Client(),
	})
}

func (s *Service) renderError(c *fiber.Ctx, status int, username, msg string) error {
	return c.Status(status).Render(TemplateName, fiber.Map{
		"Title":    s.cfg.Title,
		"Username": username,
		"Error":    msg,
	}, handler.BaseLayout)
}

// mapLoginError returns the status and fixed message for a failed login. Unknown errors are
// handed back for the app error handler.
func mapLoginError(c *fiber.Ctx, err error) (int, string, error) {
	var rl *auth.RateLimitError

	switch {
	case errors.As(err, &rl):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rl.RetryAfterSeconds()))

		return fiber.StatusTooManyRequests, auth.ErrRateLimited.Error(), nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), nil
	case errors.Is(err, auth.ErrAuthUnavailable):
		log.Warn().Err(err).Msg("login could not be decided")

		return fiber.StatusServiceUnavailable, auth.ErrAuthUnavailable.Error(), nil
	default:
		return 0, "", err
	}
}
