package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// EnrollmentHandler wires learner enrollment routes.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	learner := middleware.RequireRole(learnerRole)

	router.Post("", learner, h.enroll)
	router.Get("/mine", learner, h.listMine)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.EnrollmentCreateRequest
	if err := parseBody(c, &payload, service.ErrEnrollmentValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	enrollment, err := h.service.Enroll(c.UserContext(), actor, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) listMine(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	enrollments, err := h.service.ListMine(c.UserContext(), actor.ID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}
