package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/service"
	"github.com/campushub/activity-portal-api/internal/utils"
)

// ActivityHandler manages activity submission, listing and review endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireRole(models.RoleStudent), h.submit)
	router.Get("", middleware.RequireRole(models.RoleStudent), h.listOwn)
	router.Get("/pending", middleware.RequireRole(models.RoleTeacher), h.listPending)
	router.Put("/:id/review", middleware.RequireRole(models.RoleTeacher), h.review)
	router.Get("/all", middleware.RequireRole(models.RoleSuperadmin), h.listAll)
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	payload, err := parseSubmitForm(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("certificate")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "certificate file is required")
	}

	activity, err := h.service.Submit(c.Context(), identity, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity submitted", activity)
}

func (h *ActivityHandler) listOwn(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	activities, err := h.service.ListOwn(c.Context(), identity)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendList(c, "activities retrieved", len(activities), activities)
}

func (h *ActivityHandler) listPending(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	pending, err := h.service.ListPending(c.Context(), identity)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "pending activities retrieved", pending)
}

func (h *ActivityHandler) review(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Review(c.Context(), identity, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity reviewed", activity)
}

func (h *ActivityHandler) listAll(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	activities, err := h.service.ListAll(c.Context(), identity, strings.TrimSpace(c.Query("status")))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendList(c, "activities retrieved", len(activities), activities)
}

// Out-of-scope reviews answer exactly like missing activities so the
// response does not reveal whether the record exists.
func (h *ActivityHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrActivityNotInScope):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrActivityAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, "activity already reviewed")
	case errors.Is(err, service.ErrCertificateRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "certificate file is required")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func parseSubmitForm(c *fiber.Ctx) (dto.ActivitySubmitRequest, error) {
	payload := dto.ActivitySubmitRequest{
		ActivityType:   strings.TrimSpace(c.FormValue("activity_type")),
		Title:          strings.TrimSpace(c.FormValue("title")),
		Description:    strings.TrimSpace(c.FormValue("description")),
		EventOrganizer: strings.TrimSpace(c.FormValue("event_organizer")),
	}

	if raw := strings.TrimSpace(c.FormValue("date")); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return dto.ActivitySubmitRequest{}, errors.New("invalid date")
		}
		payload.Date = date
	}

	if raw := strings.TrimSpace(c.FormValue("level")); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return dto.ActivitySubmitRequest{}, errors.New("invalid level")
		}
		payload.Level = level
	}

	return payload, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}
