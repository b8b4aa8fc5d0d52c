package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/service"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

const defaultStudentListLimit = 10

// StudentHandler wires roster endpoints.
type StudentHandler struct {
	students      service.StudentService
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, notifications service.NotificationService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students:      students,
		notifications: notifications,
		logger:        logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/activity", h.recordActivity)
	router.Get("/:id/activity", h.listActivity)
	router.Post("/:id/notify", h.notify)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return bodyError(c, err)
	}

	student, err := h.students.Create(requestContext(c), payload)
	if err != nil {
		return h.fail(c, err, "failed to create student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", defaultStudentListLimit)
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	students, err := h.students.List(requestContext(c), limit)
	if err != nil {
		return h.fail(c, err, "failed to list students")
	}

	return utils.OK(c, students, "students retrieved", fiber.Map{"count": len(students), "limit": limit})
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.students.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "failed to fetch student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

// update accepts {name?, department?, email?} or the legacy {field, value} shape.
func (h *StudentHandler) update(c *fiber.Ctx) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &probe); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"body": "expected a JSON object"})
	}

	ctx := requestContext(c)
	id := c.Params("id")

	var (
		student dto.StudentResponse
		err     error
	)
	if _, legacy := probe["field"]; legacy {
		var payload dto.StudentFieldUpdateRequest
		if err := decodeStrict(c.Body(), &payload); err != nil {
			return bodyError(c, err)
		}
		student, err = h.students.UpdateField(ctx, id, payload)
	} else {
		var payload dto.StudentUpdateRequest
		if err := decodeStrict(c.Body(), &payload); err != nil {
			return bodyError(c, err)
		}
		student, err = h.students.Update(ctx, id, payload)
	}
	if err != nil {
		return h.fail(c, err, "failed to update student")
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.students.Delete(requestContext(c), id); err != nil {
		return h.fail(c, err, "failed to delete student")
	}

	return utils.SendSuccess(c, "student deleted", fiber.Map{"id": id})
}

func (h *StudentHandler) recordActivity(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if len(c.Body()) > 0 {
		if err := decodeStrict(c.Body(), &payload); err != nil {
			return bodyError(c, err)
		}
	}

	activity, err := h.students.RecordActivity(requestContext(c), c.Params("id"), payload)
	if err != nil {
		return h.fail(c, err, "failed to record activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", activity)
}

func (h *StudentHandler) listActivity(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	activities, err := h.students.ListActivity(requestContext(c), c.Params("id"), limit)
	if err != nil {
		return h.fail(c, err, "failed to list activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activities)
}

func (h *StudentHandler) notify(c *fiber.Ctx) error {
	var payload dto.NotifyRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return bodyError(c, err)
	}

	sent, err := h.notifications.Notify(requestContext(c), c.Params("id"), payload)
	if err != nil {
		return h.fail(c, err, "failed to notify student")
	}

	return utils.SendSuccess(c, "notification sent", sent)
}

func (h *StudentHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrStudentExists):
		return utils.SendError(c, fiber.StatusConflict, "student already exists")
	case isValidationError(err):
		return validationError(c, err)
	case errors.Is(err, service.ErrUnknownField),
		errors.Is(err, service.ErrInvalidStudent),
		errors.Is(err, service.ErrEmptyNotification),
		errors.Is(err, service.ErrInvalidLimit):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoEmail):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "student has no email address")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
