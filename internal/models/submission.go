package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the review state of a submission version.
type SubmissionStatus string

const (
	// SubmissionStatusSubmitted indicates the version awaits review.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusGraded indicates the version has a score.
	SubmissionStatusGraded SubmissionStatus = "graded"
	// SubmissionStatusResubmissionRequired indicates the instructor asked for a new version.
	SubmissionStatusResubmissionRequired SubmissionStatus = "resubmission_required"
)

// Valid reports whether the status is one of the known values.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusGraded, SubmissionStatusResubmissionRequired:
		return true
	default:
		return false
	}
}

// Submission is one version in the append-only chain of a learner's work on an assignment.
// Exactly one row per (assignment, learner) has IsLatest set.
type Submission struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_submission_version;uniqueIndex:idx_submission_latest,where:is_latest = true" json:"assignment_id"`
	LearnerID    uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_submission_version;uniqueIndex:idx_submission_latest,where:is_latest = true" json:"learner_id"`
	Version      int              `gorm:"not null;uniqueIndex:idx_submission_version" json:"version"`
	IsLatest     bool             `gorm:"not null" json:"is_latest"`
	Status       SubmissionStatus `gorm:"size:32;not null" json:"status"`
	Late         bool             `gorm:"not null;default:false" json:"late"`
	SubmittedAt  time.Time        `gorm:"not null;index" json:"submitted_at"`
	ContentText  string           `gorm:"type:text;not null" json:"content_text"`
	ContentLink  *string          `gorm:"size:2048" json:"content_link"`
	Score        *float64         `json:"score"`
	Feedback     *string          `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time       `json:"graded_at"`
	GradedBy     *uuid.UUID       `gorm:"type:uuid" json:"graded_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Assignment   Assignment       `gorm:"foreignKey:AssignmentID" json:"-"`
	Learner      Profile          `gorm:"foreignKey:LearnerID" json:"-"`
}

// TableName keeps the table name used by the rest of the platform.
func (Submission) TableName() string {
	return "assignment_submissions"
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded && s.Score != nil
}
