package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/scope"
	"github.com/campushub/activity-portal-api/internal/utils"
)

// requireIdentity extracts the authenticated identity or writes a 401. The
// bool result reports whether the handler may proceed.
func requireIdentity(c *fiber.Ctx) (scope.Identity, bool) {
	identity, ok := middleware.IdentityFromRequest(c)
	if !ok {
		_ = utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		return scope.Identity{}, false
	}
	return identity, true
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
