package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/service"
	"github.com/campushub/activity-portal-api/internal/utils"
)

// UserHandler manages directory endpoints.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler builds a user handler instance.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("", middleware.RequireRole(models.RoleSuperadmin), h.list)
	router.Get("/role/:role", middleware.RequireRole(models.RoleSuperadmin, models.RoleTeacher), h.listByRole)
	router.Get("/:id", middleware.RequireRole(models.RoleSuperadmin, models.RoleTeacher), h.get)
	router.Put("/:id", middleware.RequireRole(models.RoleSuperadmin), h.update)
	router.Delete("/:id", middleware.RequireRole(models.RoleSuperadmin), h.delete)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	users, err := h.service.List(c.Context(), identity)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendList(c, "users retrieved", len(users), users)
}

func (h *UserHandler) listByRole(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	users, err := h.service.ListByRole(c.Context(), identity, c.Params("role"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendList(c, "users retrieved", len(users), users)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.Get(c.Context(), identity, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UserUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Update(c.Context(), identity, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user updated", user)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), identity, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user deleted", nil)
}

// Out-of-scope directory reads answer exactly like missing users so the
// response does not reveal whether the record exists.
func (h *UserHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrUserNotInScope):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidRoleFilter):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid role specified")
	case errors.Is(err, service.ErrUserHasActivities):
		return utils.SendError(c, fiber.StatusConflict, "user still owns activity records")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
