package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	instructor := middleware.RequireRole(instructorRole)
	learner := middleware.RequireRole(learnerRole)

	router.Post("", instructor, h.create)
	router.Post("/auto-close", instructor, h.autoClose)
	router.Get("/course/:courseId", instructor, h.listForInstructor)
	router.Get("/course/:courseId/learner", learner, h.listForLearner)
	router.Get("/:id", h.get)
	router.Patch("/:id", instructor, h.update)
	router.Post("/:id/publish", instructor, h.publish)
	router.Post("/:id/close", instructor, h.close)
	router.Delete("/:id", instructor, h.delete)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.AssignmentCreateRequest
	if err := parseBody(c, &payload, service.ErrAssignmentValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	assignment, err := h.service.Create(c.UserContext(), actor, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.AssignmentUpdateRequest
	if err := parseBody(c, &payload, service.ErrAssignmentValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	assignment, err := h.service.Update(c.UserContext(), actor, id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) publish(c *fiber.Ctx) error {
	return h.transition(c, h.service.Publish, "assignment published")
}

func (h *AssignmentHandler) close(c *fiber.Ctx) error {
	return h.transition(c, h.service.Close, "assignment closed")
}

type assignmentTransition func(ctx context.Context, actor service.Actor, id uuid.UUID) (dto.AssignmentResponse, error)

func (h *AssignmentHandler) transition(c *fiber.Ctx, apply assignmentTransition, message string) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	assignment, err := apply(c.UserContext(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, message, assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) autoClose(c *fiber.Ctx) error {
	closed, err := h.service.AutoCloseExpired(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "expired assignments closed", dto.AutoCloseResponse{Closed: closed})
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	assignment, err := h.service.GetDetail(c.UserContext(), actor.ID, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) listForInstructor(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "courseId", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	assignments, err := h.service.ListForInstructor(c.UserContext(), actor.ID, courseID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) listForLearner(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "courseId", service.ErrAssignmentValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	assignments, err := h.service.ListForLearner(c.UserContext(), actor.ID, courseID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}
