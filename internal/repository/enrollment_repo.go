package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// EnrollmentRepository persists learner enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Exists(ctx context.Context, courseID, learnerID uuid.UUID) (bool, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit("Course").Create(enrollment).Error
}

func (r *enrollmentRepository) Exists(ctx context.Context, courseID, learnerID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND learner_id = ?", courseID, learnerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByLearner returns the learner's enrollments newest first, with the course and its instructor loaded.
func (r *enrollmentRepository) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Where("learner_id = ?", learnerID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}
