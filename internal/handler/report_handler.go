package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/service"
	"github.com/campushub/activity-portal-api/internal/utils"
)

// ReportHandler serves the per-student aggregation endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReportHandler) Register(router fiber.Router) {
	guard := middleware.RequireRole(models.RoleTeacher, models.RoleSuperadmin)
	router.Get("", guard, h.generate)
	router.Get("/export", guard, h.export)
}

func (h *ReportHandler) generate(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	filter, err := parseReportFilter(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Generate(c.Context(), identity, filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "report generated", report)
}

func (h *ReportHandler) export(c *fiber.Ctx) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil
	}

	filter, err := parseReportFilter(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	workbook, err := h.service.Export(c.Context(), identity, filter)
	if err != nil {
		return h.handleError(c, err)
	}

	filename := fmt.Sprintf("activity-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.Send(workbook)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func parseReportFilter(c *fiber.Ctx) (dto.ReportFilter, error) {
	filter := dto.ReportFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Status:     strings.TrimSpace(c.Query("status")),
	}

	semester, err := parseQueryInt(c, "semester")
	if err != nil {
		return dto.ReportFilter{}, fmt.Errorf("invalid semester")
	}
	if semester > 0 {
		filter.Semester = &semester
	}

	return filter, nil
}
