package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// EnrollmentService enrolls learners in published courses.
type EnrollmentService interface {
	Enroll(ctx context.Context, actor Actor, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error)
	ListMine(ctx context.Context, learnerID uuid.UUID) ([]dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	profiles    repository.ProfileRepository
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, profiles repository.ProfileRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}

	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		profiles:    profiles,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, actor Actor, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, validationFailure(ErrEnrollmentValidation, err)
	}

	profile, err := s.profiles.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotLearner
		}
		return dto.EnrollmentResponse{}, err
	}
	if profile.Role != models.RoleLearner {
		return dto.EnrollmentResponse{}, ErrEnrollmentNotLearner
	}

	courseID := uuid.MustParse(payload.CourseID)
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if course.Status != models.CourseStatusPublished {
		return dto.EnrollmentResponse{}, ErrCourseNotPublished
	}

	exists, err := s.enrollments.Exists(ctx, courseID, actor.ID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if exists {
		return dto.EnrollmentResponse{}, ErrEnrollmentDuplicate
	}

	enrollment := models.Enrollment{
		CourseID:   courseID,
		LearnerID:  actor.ID,
		EnrolledAt: s.now().UTC(),
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrEnrollmentDuplicate
		}
		return dto.EnrollmentResponse{}, err
	}
	enrollment.Course = course

	s.logger.Info().Str("course_id", courseID.String()).Str("learner_id", actor.ID.String()).Msg("learner enrolled")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "enrollment.created",
		EntityType: "enrollment",
		EntityID:   &enrollment.ID,
		Metadata:   map[string]interface{}{"course_id": courseID.String()},
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) ListMine(ctx context.Context, learnerID uuid.UUID) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}
