package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/events"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/observability"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// ReviewAction is the instructor decision applied to the latest submission.
type ReviewAction string

const (
	// ReviewActionGrade scores the submission.
	ReviewActionGrade ReviewAction = "grade"
	// ReviewActionRequestResubmission asks the learner for a new version.
	ReviewActionRequestResubmission ReviewAction = "request_resubmission"
)

// SubmissionService exposes submission intake and review use cases.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	ListForInstructor(ctx context.Context, instructorID, assignmentID uuid.UUID) (dto.AssignmentSubmissionList, error)
	Review(ctx context.Context, actor Actor, submissionID uuid.UUID, payload dto.SubmissionReviewRequest) (dto.SubmissionResponse, error)
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Assignments repository.AssignmentRepository
	Enrollments repository.EnrollmentRepository
	Submissions repository.SubmissionRepository
	Activity    ActivityRecorder
	Events      events.Publisher
	Validator   *validator.Validate
}

type submissionService struct {
	assignments repository.AssignmentRepository
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

// NewSubmissionService creates a submission service instance.
func NewSubmissionService(deps SubmissionDependencies, logger zerolog.Logger) SubmissionService {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	validate := deps.Validator
	if validate == nil {
		validate = NewValidator()
	}

	return &submissionService{
		assignments: deps.Assignments,
		enrollments: deps.Enrollments,
		submissions: deps.Submissions,
		activity:    deps.Activity,
		events:      publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-classroom-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(
		attribute.String("submission.learner_id", actor.ID.String()),
		attribute.String("submission.assignment_id", payload.AssignmentID),
	))
	defer span.End()

	content, link, err := s.normalizeContent(payload)
	if err != nil {
		return dto.SubmissionResponse{}, failSpan(span, "validation_failed", err)
	}

	assignmentID := uuid.MustParse(payload.AssignmentID)
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, failSpan(span, "assignment_not_found", ErrSubmissionAssignmentNotFound)
		}
		return dto.SubmissionResponse{}, failSpan(span, "assignment_lookup_failed", err)
	}

	enrolled, err := s.enrollments.Exists(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, failSpan(span, "enrollment_lookup_failed", err)
	}
	if !enrolled {
		return dto.SubmissionResponse{}, failSpan(span, "not_enrolled", ErrSubmissionNotEnrolled)
	}

	switch assignment.Status {
	case models.AssignmentStatusPublished:
	case models.AssignmentStatusClosed:
		return dto.SubmissionResponse{}, failSpan(span, "assignment_closed", ErrSubmissionAssignmentClosed)
	case models.AssignmentStatusDraft:
		return dto.SubmissionResponse{}, failSpan(span, "assignment_not_published", ErrSubmissionAssignmentNotPublished)
	default:
		return dto.SubmissionResponse{}, failSpan(span, "assignment_not_published", ErrSubmissionAssignmentNotPublished)
	}

	now := s.now().UTC()
	late := assignment.IsPastDue(now)
	if late && !assignment.AllowLate {
		return dto.SubmissionResponse{}, failSpan(span, "deadline_passed", ErrSubmissionDeadlinePassed)
	}

	created, err := s.submissions.AppendVersion(ctx, assignment.ID, actor.ID, func(previous *models.Submission) (*models.Submission, error) {
		version := 1
		if previous != nil {
			if !assignment.AllowResubmission {
				return nil, ErrSubmissionResubmissionNotAllowed
			}
			version = previous.Version + 1
		}

		return &models.Submission{
			AssignmentID: assignment.ID,
			LearnerID:    actor.ID,
			Version:      version,
			IsLatest:     true,
			Status:       models.SubmissionStatusSubmitted,
			Late:         late,
			SubmittedAt:  now,
			ContentText:  content,
			ContentLink:  link,
		}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.SubmissionResponse{}, failSpan(span, "concurrent_submit", ErrSubmissionStateConflict)
		}
		return dto.SubmissionResponse{}, failSpan(span, "submission_create_failed", err)
	}

	span.SetAttributes(attribute.Int("submission.version", created.Version), attribute.Bool("submission.late", created.Late))
	observability.SubmissionsCreated().WithLabelValues(strconv.FormatBool(created.Late)).Inc()
	s.logger.Info().
		Str("submission_id", created.ID.String()).
		Str("assignment_id", assignment.ID.String()).
		Int("version", created.Version).
		Bool("late", created.Late).
		Msg("submission created")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.created",
		EntityType: "submission",
		EntityID:   &created.ID,
		Metadata: map[string]interface{}{
			"assignment_id": assignment.ID.String(),
			"version":       created.Version,
			"late":          created.Late,
		},
	})
	s.publish(ctx, events.SubmissionCreated, map[string]interface{}{
		"submission_id": created.ID.String(),
		"assignment_id": assignment.ID.String(),
		"learner_id":    actor.ID.String(),
		"version":       created.Version,
		"late":          created.Late,
	})

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) normalizeContent(payload dto.SubmissionCreateRequest) (string, *string, error) {
	if err := s.validator.Struct(payload); err != nil {
		return "", nil, validationFailure(ErrSubmissionValidation, err)
	}

	content := strings.TrimSpace(payload.ContentText)
	if content == "" {
		return "", nil, ErrSubmissionValidation.WithDetails(map[string]string{"content_text": "required"})
	}
	if !isPlainText([]byte(content)) {
		return "", nil, ErrSubmissionValidation.WithDetails(map[string]string{"content_text": "text"})
	}

	var link *string
	if payload.ContentLink != nil {
		if trimmed := strings.TrimSpace(*payload.ContentLink); trimmed != "" {
			link = &trimmed
		}
	}

	return content, link, nil
}

func (s *submissionService) ListForInstructor(ctx context.Context, instructorID, assignmentID uuid.UUID) (dto.AssignmentSubmissionList, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionList{}, ErrSubmissionAssignmentNotFound
		}
		return dto.AssignmentSubmissionList{}, err
	}

	if assignment.Course.InstructorID != instructorID {
		return dto.AssignmentSubmissionList{}, ErrSubmissionUnauthorized
	}

	submissions, err := s.submissions.LatestByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentSubmissionList{}, err
	}

	return dto.NewAssignmentSubmissionList(assignment, submissions), nil
}

func (s *submissionService) Review(ctx context.Context, actor Actor, submissionID uuid.UUID, payload dto.SubmissionReviewRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.review", trace.WithAttributes(
		attribute.String("submission.id", submissionID.String()),
		attribute.String("submission.action", payload.Action),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, failSpan(span, "validation_failed", validationFailure(ErrSubmissionValidation, err))
	}

	feedback := sanitizeText(s.sanitizer, payload.Feedback)
	if feedback == "" {
		return dto.SubmissionResponse{}, failSpan(span, "feedback_required", ErrSubmissionFeedbackRequired)
	}

	action := ReviewAction(payload.Action)
	now := s.now().UTC()
	var fields map[string]interface{}
	var guard repository.ReviewGuard

	switch action {
	case ReviewActionGrade:
		if payload.Score == nil || *payload.Score < 0 || *payload.Score > 100 {
			return dto.SubmissionResponse{}, failSpan(span, "score_out_of_range", ErrSubmissionScoreOutOfRange)
		}
		fields = map[string]interface{}{
			"status":    models.SubmissionStatusGraded,
			"score":     *payload.Score,
			"feedback":  feedback,
			"graded_at": now,
			"graded_by": actor.ID,
		}
	case ReviewActionRequestResubmission:
		if payload.Score != nil {
			return dto.SubmissionResponse{}, failSpan(span, "validation_failed",
				ErrSubmissionValidation.WithMessage("score cannot be set when requesting a resubmission"))
		}
		fields = map[string]interface{}{
			"status":    models.SubmissionStatusResubmissionRequired,
			"score":     nil,
			"feedback":  feedback,
			"graded_at": nil,
			"graded_by": nil,
		}
		guard.ExcludeStatus = models.SubmissionStatusResubmissionRequired
	default:
		return dto.SubmissionResponse{}, failSpan(span, "validation_failed", ErrSubmissionValidation)
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, failSpan(span, "submission_not_found", ErrSubmissionNotFound)
		}
		return dto.SubmissionResponse{}, failSpan(span, "submission_lookup_failed", err)
	}

	if submission.Assignment.Course.InstructorID != actor.ID {
		return dto.SubmissionResponse{}, failSpan(span, "unauthorized", ErrSubmissionUnauthorized)
	}

	if !submission.IsLatest {
		return dto.SubmissionResponse{}, failSpan(span, "stale_submission",
			ErrSubmissionStateConflict.WithMessage("a newer version of this submission exists"))
	}

	if guard.ExcludeStatus != "" && submission.Status == guard.ExcludeStatus {
		return dto.SubmissionResponse{}, failSpan(span, "already_requested",
			ErrSubmissionStateConflict.WithMessage("a resubmission has already been requested"))
	}

	if err := s.submissions.Review(ctx, submissionID, guard, fields); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.SubmissionResponse{}, failSpan(span, "concurrent_review", ErrSubmissionStateConflict)
		}
		return dto.SubmissionResponse{}, failSpan(span, "submission_review_failed", err)
	}

	reviewed, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, failSpan(span, "submission_reload_failed", err)
	}

	observability.SubmissionReviews().WithLabelValues(string(action)).Inc()
	s.logger.Info().
		Str("submission_id", submissionID.String()).
		Str("action", string(action)).
		Str("instructor_id", actor.ID.String()).
		Msg("submission reviewed")

	metadata := map[string]interface{}{
		"assignment_id": reviewed.AssignmentID.String(),
		"learner_id":    reviewed.LearnerID.String(),
		"action":        string(action),
	}
	if reviewed.Score != nil {
		metadata["score"] = *reviewed.Score
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.reviewed",
		EntityType: "submission",
		EntityID:   &reviewed.ID,
		Metadata:   metadata,
	})
	s.publish(ctx, events.SubmissionReviewed, map[string]interface{}{
		"submission_id": reviewed.ID.String(),
		"assignment_id": reviewed.AssignmentID.String(),
		"learner_id":    reviewed.LearnerID.String(),
		"status":        string(reviewed.Status),
	})

	return dto.NewSubmissionResponse(reviewed), nil
}

func (s *submissionService) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish lifecycle event")
	}
}
