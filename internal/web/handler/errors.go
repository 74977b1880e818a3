package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/controller/user"
)

var (
	// ErrInvalidBody is answered when a JSON body can not be parsed.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrInvalidID is answered when a path id is not a positive number.
	ErrInvalidID = errors.New("invalid id")
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Keys   []string            `json:"keys,omitempty"`
	Fields []FieldErrorMessage `json:"fields,omitempty"`
}

// ParamID returns the positive numeric :id path parameter.
func ParamID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return uint(id), nil
}

// JSONError maps domain errors to status codes. Errors it does not know are returned
// unchanged so the app error handler answers a generic 500.
func JSONError(c *fiber.Ctx, err error) error {
	var (
		verr *auth.ValidationError
		cerr *auth.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: verr.Error(), Keys: verr.Keys})
	case errors.As(err, &cerr):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: cerr.Error()})
	case errors.Is(err, role.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrUserNameExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidBody), errors.Is(err, ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	default:
		return err
	}
}
