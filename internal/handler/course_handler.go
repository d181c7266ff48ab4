package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// CourseHandler wires the course catalogue routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	instructor := middleware.RequireRole(instructorRole)

	router.Get("", h.list)
	router.Get("/mine", instructor, h.listMine)
	router.Get("/:id", h.get)
	router.Post("", instructor, h.create)
	router.Patch("/:id", instructor, h.update)
	router.Post("/:id/publish", instructor, h.publish)
	router.Delete("/:id", instructor, h.delete)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var query dto.CourseListQuery
	if err := c.QueryParser(&query); err != nil {
		return handleError(c, h.logger, service.ErrCourseValidation.WithMessage("invalid query parameters"))
	}

	courses, meta, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.OK(c, courses, "courses retrieved", meta)
}

func (h *CourseHandler) listMine(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	courses, err := h.service.ListMine(c.UserContext(), actor.ID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrCourseValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	course, err := h.service.Get(c.UserContext(), actor.ID, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.CourseCreateRequest
	if err := parseBody(c, &payload, service.ErrCourseValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	course, err := h.service.Create(c.UserContext(), actor, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrCourseValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.CourseUpdateRequest
	if err := parseBody(c, &payload, service.ErrCourseValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	course, err := h.service.Update(c.UserContext(), actor, id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) publish(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrCourseValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	course, err := h.service.Publish(c.UserContext(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course published", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrCourseValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}
