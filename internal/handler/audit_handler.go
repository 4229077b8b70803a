package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/middleware"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/service"
	"github.com/campushub/activity-portal-api/internal/utils"
)

// AuditHandler exposes the audit trail to superadmins.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler builds an audit handler instance.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", middleware.RequireRole(models.RoleSuperadmin), h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	if _, ok := requireIdentity(c); !ok {
		return nil
	}

	req := dto.AuditListRequest{Action: strings.TrimSpace(c.Query("action"))}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	req.Page = page

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	req.PageSize = pageSize

	entries, err := h.service.List(c.Context(), req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "audit entries retrieved", entries)
}
