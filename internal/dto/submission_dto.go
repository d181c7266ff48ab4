package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// SubmissionCreateRequest captures a learner's text or link answer.
type SubmissionCreateRequest struct {
	AssignmentID string  `json:"assignment_id" validate:"required,uuid"`
	ContentText  string  `json:"content_text" validate:"required,max=50000"`
	ContentLink  *string `json:"content_link" validate:"omitempty,url,max=2048"`
}

// SubmissionReviewRequest is the instructor decision on the latest submission.
type SubmissionReviewRequest struct {
	Action   string   `json:"action" validate:"required,oneof=grade request_resubmission"`
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

// SubmissionResponse represents a submission version.
type SubmissionResponse struct {
	ID           uuid.UUID               `json:"id"`
	AssignmentID uuid.UUID               `json:"assignment_id"`
	LearnerID    uuid.UUID               `json:"learner_id"`
	LearnerName  string                  `json:"learner_name,omitempty"`
	Version      int                     `json:"version"`
	IsLatest     bool                    `json:"is_latest"`
	Status       models.SubmissionStatus `json:"status"`
	Late         bool                    `json:"late"`
	SubmittedAt  time.Time               `json:"submitted_at"`
	ContentText  string                  `json:"content_text"`
	ContentLink  *string                 `json:"content_link"`
	Score        *float64                `json:"score"`
	Feedback     *string                 `json:"feedback"`
	GradedAt     *time.Time              `json:"graded_at"`
	GradedBy     *uuid.UUID              `json:"graded_by"`
}

// AssignmentSummary is the short assignment header shown above a submission list.
type AssignmentSummary struct {
	ID     uuid.UUID               `json:"id"`
	Title  string                  `json:"title"`
	Status models.AssignmentStatus `json:"status"`
	DueAt  time.Time               `json:"due_at"`
}

// AssignmentSubmissionList is the instructor view of every learner's latest submission.
type AssignmentSubmissionList struct {
	Assignment  AssignmentSummary    `json:"assignment"`
	Submissions []SubmissionResponse `json:"submissions"`
}

// NewSubmissionResponse converts a submission model to DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		LearnerID:    model.LearnerID,
		LearnerName:  model.Learner.FullName,
		Version:      model.Version,
		IsLatest:     model.IsLatest,
		Status:       model.Status,
		Late:         model.Late,
		SubmittedAt:  model.SubmittedAt,
		ContentText:  model.ContentText,
		ContentLink:  model.ContentLink,
		Score:        model.Score,
		Feedback:     model.Feedback,
		GradedAt:     model.GradedAt,
		GradedBy:     model.GradedBy,
	}
}

// NewAssignmentSubmissionList builds the instructor list view.
func NewAssignmentSubmissionList(assignment models.Assignment, submissions []models.Submission) AssignmentSubmissionList {
	items := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, NewSubmissionResponse(submission))
	}

	return AssignmentSubmissionList{
		Assignment: AssignmentSummary{
			ID:     assignment.ID,
			Title:  assignment.Title,
			Status: assignment.Status,
			DueAt:  assignment.DueAt,
		},
		Submissions: items,
	}
}
