package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// SubmissionHandler wires submission, review and grade routes.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grades      service.GradeService
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions service.SubmissionService, grades service.GradeService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grades:      grades,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints. submitLimiter may be nil.
func (h *SubmissionHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	instructor := middleware.RequireRole(instructorRole)
	learner := middleware.RequireRole(learnerRole)

	submit := []fiber.Handler{learner}
	if submitLimiter != nil {
		submit = append(submit, submitLimiter)
	}
	submit = append(submit, h.submit)

	router.Post("", submit...)
	router.Get("/my-grades", learner, h.myGrades)
	router.Get("/assignment/:assignmentId", instructor, h.listForAssignment)
	router.Patch("/:submissionId", instructor, h.review)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.SubmissionCreateRequest
	if err := parseBody(c, &payload, service.ErrSubmissionValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	submission, err := h.submissions.Submit(c.UserContext(), actor, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) listForAssignment(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	assignmentID, err := parseUUIDParam(c, "assignmentId", service.ErrSubmissionValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	list, err := h.submissions.ListForInstructor(c.UserContext(), actor.ID, assignmentID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", list)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	submissionID, err := parseUUIDParam(c, "submissionId", service.ErrSubmissionValidation)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var payload dto.SubmissionReviewRequest
	if err := parseBody(c, &payload, service.ErrSubmissionValidation); err != nil {
		return handleError(c, h.logger, err)
	}

	submission, err := h.submissions.Review(c.UserContext(), actor, submissionID, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission reviewed", submission)
}

func (h *SubmissionHandler) myGrades(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	grades, err := h.grades.GetMyGrades(c.UserContext(), actor.ID)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grades retrieved", grades)
}
