package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// CourseFilter describes catalogue search options.
type CourseFilter struct {
	Search     string
	Category   string
	Difficulty string
	Status     models.CourseStatus
	Sort       string
	Page       int
	PageSize   int
}

// CourseSummary is a course row enriched with catalogue counters.
type CourseSummary struct {
	Course          models.Course
	EnrollmentCount int64
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Publish(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter CourseFilter) ([]CourseSummary, int64, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]CourseSummary, error)
	EnrollmentCount(ctx context.Context, courseID uuid.UUID) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Instructor").Where("id = ?", id).Take(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Instructor").Create(course).Error
}

func (r *courseRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) Publish(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ? AND status = ?", id, models.CourseStatusDraft).
		Updates(map[string]interface{}{
			"status":       models.CourseStatusPublished,
			"published_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteDraft removes a draft course together with its assignments.
func (r *courseRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignmentIDs := tx.Model(&models.Assignment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("assignment_id IN (?)", assignmentIDs).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND status = ?", id, models.CourseStatusDraft).Delete(&models.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]CourseSummary, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeCourseSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var courses []models.Course
	if err := query.Preload("Instructor").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	summaries, err := r.summarise(ctx, courses)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]CourseSummary, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return r.summarise(ctx, courses)
}

func (r *courseRepository) EnrollmentCount(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type courseEnrollmentCount struct {
	CourseID uuid.UUID
	Total    int64
}

func (r *courseRepository) summarise(ctx context.Context, courses []models.Course) ([]CourseSummary, error) {
	if len(courses) == 0 {
		return []CourseSummary{}, nil
	}

	ids := make([]uuid.UUID, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}

	var rows []courseEnrollmentCount
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}

	summaries := make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		summaries = append(summaries, CourseSummary{Course: course, EnrollmentCount: counts[course.ID]})
	}
	return summaries, nil
}

func normalizeCourseSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "popular":
		return "(SELECT COUNT(*) FROM course_enrollments WHERE course_enrollments.course_id = courses.id) DESC, created_at DESC"
	case "oldest":
		return "created_at ASC"
	case "title":
		return "title ASC"
	default:
		return "created_at DESC"
	}
}
