package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/events"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/observability"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// AssignmentService enforces the assignment lifecycle: draft -> published -> closed.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, actor Actor, id uuid.UUID) (dto.AssignmentResponse, error)
	Close(ctx context.Context, actor Actor, id uuid.UUID) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	AutoCloseExpired(ctx context.Context) (int64, error)
	GetDetail(ctx context.Context, viewerID, id uuid.UUID) (dto.AssignmentWithSubmission, error)
	ListForInstructor(ctx context.Context, instructorID, courseID uuid.UUID) ([]dto.AssignmentResponse, error)
	ListForLearner(ctx context.Context, learnerID, courseID uuid.UUID) ([]dto.AssignmentWithSubmission, error)
}

// AssignmentDependencies groups the collaborators of the assignment service.
type AssignmentDependencies struct {
	Assignments repository.AssignmentRepository
	Courses     repository.CourseRepository
	Enrollments repository.EnrollmentRepository
	Submissions repository.SubmissionRepository
	Activity    ActivityRecorder
	Events      events.Publisher
	Validator   *validator.Validate
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	submissions repository.SubmissionRepository
	activity    ActivityRecorder
	events      events.Publisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(deps AssignmentDependencies, logger zerolog.Logger) AssignmentService {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	validate := deps.Validator
	if validate == nil {
		validate = NewValidator()
	}

	return &assignmentService{
		assignments: deps.Assignments,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		submissions: deps.Submissions,
		activity:    deps.Activity,
		events:      publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-classroom-api/internal/service/assignment"),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.create", trace.WithAttributes(
		attribute.String("assignment.actor_id", actor.ID.String()),
		attribute.String("assignment.course_id", payload.CourseID),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed", validationFailure(ErrAssignmentValidation, err))
	}

	dueAt, ok := parseDueAt(payload.DueAt)
	if !ok {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed",
			ErrAssignmentValidation.WithDetails(map[string]string{"due_at": "datetime"}))
	}

	title := sanitizeText(s.sanitizer, payload.Title)
	description := sanitizeText(s.sanitizer, payload.Description)
	if title == "" || description == "" {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed",
			ErrAssignmentValidation.WithMessage("title and description must contain text"))
	}

	courseID := uuid.MustParse(payload.CourseID)
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, failSpan(span, "course_not_found", ErrAssignmentCourseNotFound)
		}
		return dto.AssignmentResponse{}, failSpan(span, "course_lookup_failed", err)
	}

	if course.InstructorID != actor.ID {
		return dto.AssignmentResponse{}, failSpan(span, "unauthorized", ErrAssignmentUnauthorized)
	}

	assignment := models.Assignment{
		CourseID:          course.ID,
		Title:             title,
		Description:       description,
		DueAt:             dueAt,
		ScoreWeight:       *payload.ScoreWeight,
		AllowLate:         payload.AllowLate,
		AllowResubmission: payload.AllowResubmission,
		Status:            models.AssignmentStatusDraft,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "assignment_create_failed", err)
	}
	assignment.Course = course

	s.logger.Info().Str("assignment_id", assignment.ID.String()).Str("course_id", course.ID.String()).Msg("assignment created")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assignment.created",
		EntityType: "assignment",
		EntityID:   &assignment.ID,
		Metadata:   map[string]interface{}{"course_id": course.ID.String()},
	})

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uuid.UUID, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.update", trace.WithAttributes(
		attribute.String("assignment.id", id.String()),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed", validationFailure(ErrAssignmentValidation, err))
	}

	requested := payload.Fields()
	if len(requested) == 0 {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed", ErrAssignmentValidation.WithMessage("no fields to update"))
	}

	assignment, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "assignment_lookup_failed", err)
	}

	decision, denied := assignment.Status.CheckEdit(requested)
	switch decision {
	case models.EditForbidden:
		return dto.AssignmentResponse{}, failSpan(span, "edit_forbidden", ErrAssignmentCannotEditClosed)
	case models.EditRestricted:
		return dto.AssignmentResponse{}, failSpan(span, "edit_restricted",
			ErrAssignmentPublishedFieldRestriction.WithDetails(map[string]interface{}{"fields": denied}))
	case models.EditAllowed:
	}

	fields, err := s.updateFields(payload)
	if err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "validation_failed", err)
	}

	if err := s.assignments.UpdateFields(ctx, id, assignment.Status, fields); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.AssignmentResponse{}, failSpan(span, "status_changed",
				ErrAssignmentInvalidTransition.WithMessage("assignment status changed during the update"))
		}
		return dto.AssignmentResponse{}, failSpan(span, "assignment_update_failed", err)
	}

	updated, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "assignment_reload_failed", err)
	}

	s.logger.Info().Str("assignment_id", id.String()).Int("fields", len(fields)).Msg("assignment updated")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assignment.updated",
		EntityType: "assignment",
		EntityID:   &updated.ID,
		Metadata:   map[string]interface{}{"fields": requested},
	})

	return dto.NewAssignmentResponse(updated), nil
}

func (s *assignmentService) updateFields(payload dto.AssignmentUpdateRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if payload.Title != nil {
		title := sanitizeText(s.sanitizer, *payload.Title)
		if title == "" {
			return nil, ErrAssignmentValidation.WithDetails(map[string]string{"title": "required"})
		}
		fields["title"] = title
	}

	if payload.Description != nil {
		description := sanitizeText(s.sanitizer, *payload.Description)
		if description == "" {
			return nil, ErrAssignmentValidation.WithDetails(map[string]string{"description": "required"})
		}
		fields["description"] = description
	}

	if payload.DueAt != nil {
		dueAt, ok := parseDueAt(*payload.DueAt)
		if !ok {
			return nil, ErrAssignmentValidation.WithDetails(map[string]string{"due_at": "datetime"})
		}
		fields["due_at"] = dueAt
	}

	if payload.ScoreWeight != nil {
		fields["score_weight"] = *payload.ScoreWeight
	}

	if payload.AllowLate != nil {
		fields["allow_late"] = *payload.AllowLate
	}

	if payload.AllowResubmission != nil {
		fields["allow_resubmission"] = *payload.AllowResubmission
	}

	return fields, nil
}

func (s *assignmentService) Publish(ctx context.Context, actor Actor, id uuid.UUID) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.publish", trace.WithAttributes(
		attribute.String("assignment.id", id.String()),
	))
	defer span.End()

	assignment, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "assignment_lookup_failed", err)
	}

	if !assignment.Status.CanTransitionTo(models.AssignmentStatusPublished) {
		return dto.AssignmentResponse{}, failSpan(span, "invalid_transition",
			ErrAssignmentInvalidTransition.WithMessage("assignment is already "+string(assignment.Status)))
	}

	if missing := assignment.MissingRequiredFields(); len(missing) > 0 {
		return dto.AssignmentResponse{}, failSpan(span, "missing_fields",
			ErrAssignmentMissingRequiredFields.WithDetails(map[string]interface{}{"fields": missing}))
	}

	now := s.now().UTC()
	if !assignment.DueAt.After(now) {
		return dto.AssignmentResponse{}, failSpan(span, "past_due", ErrAssignmentPastDueDate)
	}

	from := []models.AssignmentStatus{models.AssignmentStatusDraft}
	if err := s.assignments.Transition(ctx, id, from, models.AssignmentStatusPublished, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.AssignmentResponse{}, failSpan(span, "invalid_transition", ErrAssignmentInvalidTransition)
		}
		return dto.AssignmentResponse{}, failSpan(span, "assignment_publish_failed", err)
	}

	return s.afterTransition(ctx, actor, assignment, models.AssignmentStatusPublished, events.AssignmentPublished)
}

func (s *assignmentService) Close(ctx context.Context, actor Actor, id uuid.UUID) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.close", trace.WithAttributes(
		attribute.String("assignment.id", id.String()),
	))
	defer span.End()

	assignment, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return dto.AssignmentResponse{}, failSpan(span, "assignment_lookup_failed", err)
	}

	if !assignment.Status.CanTransitionTo(models.AssignmentStatusClosed) {
		return dto.AssignmentResponse{}, failSpan(span, "invalid_transition",
			ErrAssignmentInvalidTransition.WithMessage("assignment is already closed"))
	}

	from := []models.AssignmentStatus{models.AssignmentStatusDraft, models.AssignmentStatusPublished}
	if err := s.assignments.Transition(ctx, id, from, models.AssignmentStatusClosed, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.AssignmentResponse{}, failSpan(span, "invalid_transition", ErrAssignmentInvalidTransition)
		}
		return dto.AssignmentResponse{}, failSpan(span, "assignment_close_failed", err)
	}

	return s.afterTransition(ctx, actor, assignment, models.AssignmentStatusClosed, events.AssignmentClosed)
}

func (s *assignmentService) afterTransition(ctx context.Context, actor Actor, before models.Assignment, status models.AssignmentStatus, eventType string) (dto.AssignmentResponse, error) {
	updated, err := s.assignments.GetByID(ctx, before.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	observability.AssignmentTransitions().WithLabelValues(string(status)).Inc()
	s.logger.Info().
		Str("assignment_id", updated.ID.String()).
		Str("from", string(before.Status)).
		Str("to", string(status)).
		Msg("assignment status changed")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     eventType,
		EntityType: "assignment",
		EntityID:   &updated.ID,
		Metadata:   map[string]interface{}{"from": string(before.Status)},
	})
	s.publish(ctx, eventType, map[string]interface{}{
		"assignment_id": updated.ID.String(),
		"course_id":     updated.CourseID.String(),
		"status":        string(status),
	})

	return dto.NewAssignmentResponse(updated), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "assignments.delete", trace.WithAttributes(
		attribute.String("assignment.id", id.String()),
	))
	defer span.End()

	assignment, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return failSpan(span, "assignment_lookup_failed", err)
	}

	if assignment.Status == models.AssignmentStatusClosed {
		return failSpan(span, "closed", ErrAssignmentCannotDeleteClosed)
	}

	count, err := s.submissions.CountByAssignment(ctx, id)
	if err != nil {
		return failSpan(span, "submission_count_failed", err)
	}
	if count > 0 {
		return failSpan(span, "has_submissions", ErrAssignmentHasSubmissions.WithDetails(map[string]int64{"submissions": count}))
	}

	if err := s.assignments.DeleteUnused(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return failSpan(span, "has_submissions", ErrAssignmentHasSubmissions)
		}
		return failSpan(span, "assignment_delete_failed", err)
	}

	s.logger.Info().Str("assignment_id", id.String()).Msg("assignment deleted")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assignment.deleted",
		EntityType: "assignment",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"course_id": assignment.CourseID.String()},
	})
	return nil
}

func (s *assignmentService) AutoCloseExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.auto_close")
	defer span.End()

	now := s.now().UTC()
	closed, err := s.assignments.CloseExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("auto-close sweep failed")
		return 0, failSpan(span, "auto_close_failed", err)
	}

	span.SetAttributes(attribute.Int64("assignment.auto_closed", closed))
	if closed == 0 {
		return 0, nil
	}

	observability.AssignmentsAutoClosed().Add(float64(closed))
	observability.AssignmentTransitions().WithLabelValues(string(models.AssignmentStatusClosed)).Add(float64(closed))
	s.logger.Info().Int64("closed", closed).Time("cutoff", now).Msg("expired assignments closed")
	s.publish(ctx, events.AssignmentAutoClosed, map[string]interface{}{
		"closed": closed,
		"cutoff": now.Format(time.RFC3339),
	})

	return closed, nil
}

func (s *assignmentService) GetDetail(ctx context.Context, viewerID, id uuid.UUID) (dto.AssignmentWithSubmission, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentWithSubmission{}, ErrAssignmentNotFound
		}
		return dto.AssignmentWithSubmission{}, err
	}

	if assignment.Course.InstructorID != viewerID {
		enrolled, err := s.enrollments.Exists(ctx, assignment.CourseID, viewerID)
		if err != nil {
			return dto.AssignmentWithSubmission{}, err
		}
		if !enrolled {
			return dto.AssignmentWithSubmission{}, ErrAssignmentNotEnrolled
		}
		if !assignment.Status.VisibleToLearners() {
			return dto.AssignmentWithSubmission{}, ErrAssignmentNotPublished
		}
	}

	latest, err := s.submissions.Latest(ctx, assignment.ID, viewerID)
	if err != nil {
		return dto.AssignmentWithSubmission{}, err
	}

	return dto.NewAssignmentWithSubmission(assignment, latest), nil
}

func (s *assignmentService) ListForInstructor(ctx context.Context, instructorID, courseID uuid.UUID) ([]dto.AssignmentResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentCourseNotFound
		}
		return nil, err
	}

	if course.InstructorID != instructorID {
		return nil, ErrAssignmentUnauthorized
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) ListForLearner(ctx context.Context, learnerID, courseID uuid.UUID) ([]dto.AssignmentWithSubmission, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentCourseNotFound
		}
		return nil, err
	}

	enrolled, err := s.enrollments.Exists(ctx, courseID, learnerID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrAssignmentNotEnrolled
	}

	assignments, err := s.assignments.ListVisibleByCourses(ctx, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}

	latest, err := s.submissions.LatestForLearner(ctx, learnerID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]dto.AssignmentWithSubmission, 0, len(assignments))
	for _, assignment := range assignments {
		var submission *models.Submission
		if found, ok := latest[assignment.ID]; ok {
			submission = &found
		}
		results = append(results, dto.NewAssignmentWithSubmission(assignment, submission))
	}

	return results, nil
}

// loadOwned fetches the assignment and checks that instructorID owns its course.
func (s *assignmentService) loadOwned(ctx context.Context, instructorID, id uuid.UUID) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if assignment.Course.InstructorID != instructorID {
		return models.Assignment{}, ErrAssignmentUnauthorized
	}

	return assignment, nil
}

func (s *assignmentService) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish lifecycle event")
	}
}

// failSpan records err on span, tagging it with a short status reason, and returns err.
func failSpan(span trace.Span, reason string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	if appErr, ok := apperror.From(err); ok {
		span.SetAttributes(attribute.String("error.code", appErr.Code))
	}
	return err
}
