package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// CourseService manages the course catalogue.
type CourseService interface {
	List(ctx context.Context, query dto.CourseListQuery) ([]dto.CourseResponse, dto.PaginationMeta, error)
	ListMine(ctx context.Context, instructorID uuid.UUID) ([]dto.CourseResponse, error)
	Get(ctx context.Context, viewerID, id uuid.UUID) (dto.CourseDetailResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Publish(ctx context.Context, actor Actor, id uuid.UUID) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type courseService struct {
	courses     repository.CourseRepository
	profiles    repository.ProfileRepository
	enrollments repository.EnrollmentRepository
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, profiles repository.ProfileRepository, enrollments repository.EnrollmentRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CourseService {
	if validate == nil {
		validate = NewValidator()
	}

	return &courseService{
		courses:     courses,
		profiles:    profiles,
		enrollments: enrollments,
		activity:    activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "course_service").Logger(),
		now:         time.Now,
	}
}

func (s *courseService) List(ctx context.Context, query dto.CourseListQuery) ([]dto.CourseResponse, dto.PaginationMeta, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PaginationMeta{}, validationFailure(ErrCourseValidation, err)
	}

	pageSize := query.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	page := maxInt(query.Page, 1)

	items, total, err := s.courses.List(ctx, repository.CourseFilter{
		Search:     query.Search,
		Category:   query.Category,
		Difficulty: query.Difficulty,
		Status:     models.CourseStatusPublished,
		Sort:       query.Sort,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	return dto.NewCourseResponseSlice(items), dto.PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total}, nil
}

func (s *courseService) ListMine(ctx context.Context, instructorID uuid.UUID) ([]dto.CourseResponse, error) {
	items, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(items), nil
}

func (s *courseService) Get(ctx context.Context, viewerID, id uuid.UUID) (dto.CourseDetailResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseDetailResponse{}, ErrCourseNotFound
		}
		return dto.CourseDetailResponse{}, err
	}

	if course.InstructorID != viewerID && course.Status != models.CourseStatusPublished {
		return dto.CourseDetailResponse{}, ErrCourseNotFound
	}

	count, err := s.courses.EnrollmentCount(ctx, id)
	if err != nil {
		return dto.CourseDetailResponse{}, err
	}

	enrolled, err := s.enrollments.Exists(ctx, id, viewerID)
	if err != nil {
		return dto.CourseDetailResponse{}, err
	}

	return dto.CourseDetailResponse{
		CourseResponse: dto.NewCourseResponse(course, count),
		IsEnrolled:     enrolled,
	}, nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, validationFailure(ErrCourseValidation, err)
	}

	profile, err := s.profiles.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseUnauthorized
		}
		return dto.CourseResponse{}, err
	}
	if profile.Role != models.RoleInstructor {
		return dto.CourseResponse{}, ErrCourseUnauthorized.WithMessage("only instructors can create courses")
	}

	title := sanitizeText(s.sanitizer, payload.Title)
	description := sanitizeText(s.sanitizer, payload.Description)
	if title == "" || description == "" {
		return dto.CourseResponse{}, ErrCourseValidation.WithMessage("title and description must contain text")
	}

	course := models.Course{
		InstructorID: actor.ID,
		Title:        title,
		Description:  description,
		Category:     sanitizeText(s.sanitizer, payload.Category),
		Difficulty:   payload.Difficulty,
		Status:       models.CourseStatusDraft,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	course.Instructor = profile

	s.logger.Info().Str("course_id", course.ID.String()).Msg("course created")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "course.created",
		EntityType: "course",
		EntityID:   &course.ID,
	})

	return dto.NewCourseResponse(course, 0), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uuid.UUID, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, validationFailure(ErrCourseValidation, err)
	}

	course, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if course.Status == models.CourseStatusArchived {
		return dto.CourseResponse{}, ErrCourseInvalidTransition.WithMessage("archived courses cannot be edited")
	}

	fields := make(map[string]interface{})
	if payload.Title != nil {
		title := sanitizeText(s.sanitizer, *payload.Title)
		if title == "" {
			return dto.CourseResponse{}, ErrCourseValidation.WithDetails(map[string]string{"title": "required"})
		}
		fields["title"] = title
	}
	if payload.Description != nil {
		description := sanitizeText(s.sanitizer, *payload.Description)
		if description == "" {
			return dto.CourseResponse{}, ErrCourseValidation.WithDetails(map[string]string{"description": "required"})
		}
		fields["description"] = description
	}
	if payload.Category != nil {
		fields["category"] = sanitizeText(s.sanitizer, *payload.Category)
	}
	if payload.Difficulty != nil {
		fields["difficulty"] = *payload.Difficulty
	}
	if len(fields) == 0 {
		return dto.CourseResponse{}, ErrCourseValidation.WithMessage("no fields to update")
	}

	if err := s.courses.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return s.reload(ctx, id)
}

func (s *courseService) Publish(ctx context.Context, actor Actor, id uuid.UUID) (dto.CourseResponse, error) {
	course, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if course.Status != models.CourseStatusDraft {
		return dto.CourseResponse{}, ErrCourseInvalidTransition.WithMessage("course is already " + string(course.Status))
	}

	if err := s.courses.Publish(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.CourseResponse{}, ErrCourseInvalidTransition
		}
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Str("course_id", id.String()).Msg("course published")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "course.published",
		EntityType: "course",
		EntityID:   &id,
	})

	return s.reload(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	course, err := s.loadOwned(ctx, actor.ID, id)
	if err != nil {
		return err
	}

	if course.Status != models.CourseStatusDraft {
		return ErrCourseCannotDeletePublished
	}

	if err := s.courses.DeleteDraft(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrCourseCannotDeletePublished
		}
		return err
	}

	s.logger.Info().Str("course_id", id.String()).Msg("course deleted")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "course.deleted",
		EntityType: "course",
		EntityID:   &id,
	})
	return nil
}

func (s *courseService) loadOwned(ctx context.Context, instructorID, id uuid.UUID) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	if course.InstructorID != instructorID {
		return models.Course{}, ErrCourseUnauthorized
	}

	return course, nil
}

func (s *courseService) reload(ctx context.Context, id uuid.UUID) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	count, err := s.courses.EnrollmentCount(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course, count), nil
}
