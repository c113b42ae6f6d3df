package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/classly/classly-api/internal/models"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// currentUser reconstructs the authenticated caller from the claims the JWT
// middleware bound to the request. Only the id and role are populated.
func currentUser(c *fiber.Ctx) models.User {
	user := models.User{}
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			user.ID = id
		}
	}
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			user.Role = strings.ToLower(strings.TrimSpace(role))
		}
	}
	return user
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
