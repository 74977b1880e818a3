package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// FieldErrorMessage describes one failed struct field.
type FieldErrorMessage struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// Validator wraps validator.Validate for request payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator with the default rules.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Struct validates in and lists the failed fields. Nil means valid.
func (v *Validator) Struct(in any) []FieldErrorMessage {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldErrorMessage{{Field: "", Tag: err.Error()}}
	}

	out := make([]FieldErrorMessage, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldErrorMessage{Field: fe.Field(), Tag: fe.Tag()})
	}

	return out
}

// BindJSON parses and validates the request body. The returned error is already written
// to the response when it is not nil.
func (v *Validator) BindJSON(c *fiber.Ctx, in any) (bool, error) {
	if err := c.BodyParser(in); err != nil {
		return false, JSONError(c, ErrInvalidBody)
	}

	if fields := v.Struct(in); fields != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
	}

	return true, nil
}
