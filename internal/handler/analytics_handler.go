package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/service"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

// AnalyticsHandler exposes roster statistics.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the router group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("", h.summary)
	router.Get("/total", h.total)
	router.Get("/recent", h.recent)
	router.Get("/by-department", h.byDepartment)
	router.Get("/active", h.active)
}

func (h *AnalyticsHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(requestContext(c))
	if err != nil {
		return h.fail(c, err, "failed to load analytics")
	}
	return utils.SendSuccess(c, "analytics retrieved", summary)
}

func (h *AnalyticsHandler) total(c *fiber.Ctx) error {
	total, err := h.service.TotalCount(requestContext(c))
	if err != nil {
		return h.fail(c, err, "failed to count students")
	}
	return utils.SendSuccess(c, "total students", dto.TotalStudentsResponse{TotalStudents: total})
}

func (h *AnalyticsHandler) recent(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", service.DefaultRecentLimit)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	students, err := h.service.Recent(requestContext(c), limit)
	if err != nil {
		return h.fail(c, err, "failed to load recent students")
	}
	return utils.OK(c, students, "recent students", fiber.Map{"limit": limit, "count": len(students)})
}

func (h *AnalyticsHandler) byDepartment(c *fiber.Ctx) error {
	groups, err := h.service.CountsByDepartment(requestContext(c))
	if err != nil {
		return h.fail(c, err, "failed to group students")
	}
	return utils.SendSuccess(c, "students by department", groups)
}

func (h *AnalyticsHandler) active(c *fiber.Ctx) error {
	days, err := parseQueryInt(c, "days", service.DefaultActiveWindowDays)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid days")
	}

	window, err := h.service.ActiveInWindow(requestContext(c), days)
	if err != nil {
		return h.fail(c, err, "failed to load activity window")
	}
	return utils.SendSuccess(c, "active students", window)
}

func (h *AnalyticsHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, service.ErrInvalidLimit) || errors.Is(err, service.ErrInvalidWindow) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
