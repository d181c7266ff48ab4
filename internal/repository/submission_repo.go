package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// SubmissionBuilder derives the next version from the current latest one, which is nil
// for a first submission. Returning an error aborts the append.
type SubmissionBuilder func(previous *models.Submission) (*models.Submission, error)

// ReviewGuard restricts which latest rows a review may overwrite.
type ReviewGuard struct {
	ExcludeStatus models.SubmissionStatus
}

// SubmissionRepository defines data operations for the submission version chain.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.Submission, error)
	Latest(ctx context.Context, assignmentID, learnerID uuid.UUID) (*models.Submission, error)
	LatestForLearner(ctx context.Context, learnerID uuid.UUID, assignmentIDs []uuid.UUID) (map[uuid.UUID]models.Submission, error)
	LatestByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Submission, error)
	CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error)
	AppendVersion(ctx context.Context, assignmentID, learnerID uuid.UUID, build SubmissionBuilder) (models.Submission, error)
	Review(ctx context.Context, id uuid.UUID, guard ReviewGuard, fields map[string]interface{}) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Assignment.Course").
		Where("id = ?", id).
		Take(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// Latest returns nil without error when the learner has not submitted yet.
func (r *submissionRepository) Latest(ctx context.Context, assignmentID, learnerID uuid.UUID) (*models.Submission, error) {
	return latestSubmission(r.db.WithContext(ctx), assignmentID, learnerID)
}

func latestSubmission(db *gorm.DB, assignmentID, learnerID uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := db.Where("assignment_id = ? AND learner_id = ? AND is_latest = ?", assignmentID, learnerID, true).
		Take(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

func (r *submissionRepository) LatestForLearner(ctx context.Context, learnerID uuid.UUID, assignmentIDs []uuid.UUID) (map[uuid.UUID]models.Submission, error) {
	latest := make(map[uuid.UUID]models.Submission, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return latest, nil
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("learner_id = ? AND is_latest = ?", learnerID, true).
		Where("assignment_id IN ?", assignmentIDs).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	for _, submission := range submissions {
		latest[submission.AssignmentID] = submission
	}
	return latest, nil
}

// LatestByAssignment returns every learner's latest submission, newest first, with the learner loaded.
func (r *submissionRepository) LatestByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Learner").
		Where("assignment_id = ? AND is_latest = ?", assignmentID, true).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AppendVersion flips the current latest row and inserts the built version in one transaction.
// Losing a race against another append for the same pair yields ErrConflict.
func (r *submissionRepository) AppendVersion(ctx context.Context, assignmentID, learnerID uuid.UUID, build SubmissionBuilder) (models.Submission, error) {
	var created models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		previous, err := latestSubmission(tx, assignmentID, learnerID)
		if err != nil {
			return err
		}

		next, err := build(previous)
		if err != nil {
			return err
		}

		if previous != nil {
			result := tx.Model(&models.Submission{}).
				Where("id = ? AND is_latest = ?", previous.ID, true).
				Update("is_latest", false)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != 1 {
				return ErrConflict
			}
		}

		if err := tx.Omit("Assignment", "Learner").Create(next).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}

		created = *next
		return nil
	})
	if err != nil {
		return models.Submission{}, err
	}

	return created, nil
}

// Review overwrites review fields on a row that is still the latest version.
func (r *submissionRepository) Review(ctx context.Context, id uuid.UUID, guard ReviewGuard, fields map[string]interface{}) error {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND is_latest = ?", id, true)
	if guard.ExcludeStatus != "" {
		query = query.Where("status <> ?", guard.ExcludeStatus)
	}

	result := query.Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
