package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateFields(ctx context.Context, id uuid.UUID, expected models.AssignmentStatus, fields map[string]interface{}) error
	Transition(ctx context.Context, id uuid.UUID, from []models.AssignmentStatus, to models.AssignmentStatus, at time.Time) error
	DeleteUnused(ctx context.Context, id uuid.UUID) error
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Assignment, error)
	ListVisibleByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]models.Assignment, error)
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Course").Where("id = ?", id).Take(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Course").Create(assignment).Error
}

// UpdateFields writes fields only while the assignment is still in the expected status.
func (r *assignmentRepository) UpdateFields(ctx context.Context, id uuid.UUID, expected models.AssignmentStatus, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Transition moves the assignment to status `to` and stamps the matching timestamp.
// The write only applies while the stored status is one of `from`.
func (r *assignmentRepository) Transition(ctx context.Context, id uuid.UUID, from []models.AssignmentStatus, to models.AssignmentStatus, at time.Time) error {
	fields := map[string]interface{}{"status": to}
	switch to {
	case models.AssignmentStatusPublished:
		fields["published_at"] = at
	case models.AssignmentStatusClosed:
		fields["closed_at"] = at
	case models.AssignmentStatusDraft:
		return ErrConflict
	}

	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteUnused removes the assignment unless it is closed or has submissions.
func (r *assignmentRepository) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	submissions := r.db.Model(&models.Submission{}).Select("1").Where("assignment_id = ?", id)

	result := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, models.AssignmentStatusClosed).
		Where("NOT EXISTS (?)", submissions).
		Delete(&models.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListByCourse returns every assignment of the course, newest first.
func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// ListVisibleByCourses returns published and closed assignments of the courses, earliest due first.
func (r *assignmentRepository) ListVisibleByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]models.Assignment, error) {
	if len(courseIDs) == 0 {
		return []models.Assignment{}, nil
	}

	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Where("status IN ?", []models.AssignmentStatus{models.AssignmentStatusPublished, models.AssignmentStatusClosed}).
		Order("due_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// CloseExpired closes every published assignment whose deadline is before now in a single statement.
func (r *assignmentRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("status = ? AND due_at < ?", models.AssignmentStatusPublished, now).
		Updates(map[string]interface{}{
			"status":    models.AssignmentStatusClosed,
			"closed_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
