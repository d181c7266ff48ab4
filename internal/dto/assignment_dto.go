package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	CourseID          string   `json:"course_id" validate:"required,uuid"`
	Title             string   `json:"title" validate:"required,max=200"`
	Description       string   `json:"description" validate:"required"`
	DueAt             string   `json:"due_at" validate:"required"`
	ScoreWeight       *float64 `json:"score_weight" validate:"required,gte=0,lte=100"`
	AllowLate         bool     `json:"allow_late"`
	AllowResubmission bool     `json:"allow_resubmission"`
}

// AssignmentUpdateRequest describes a partial update. Nil fields are left untouched.
type AssignmentUpdateRequest struct {
	Title             *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description       *string  `json:"description" validate:"omitempty,min=1"`
	DueAt             *string  `json:"due_at" validate:"omitempty"`
	ScoreWeight       *float64 `json:"score_weight" validate:"omitempty,gte=0,lte=100"`
	AllowLate         *bool    `json:"allow_late"`
	AllowResubmission *bool    `json:"allow_resubmission"`
}

// Fields lists the attributes the request asks to change.
func (r AssignmentUpdateRequest) Fields() []models.AssignmentField {
	var fields []models.AssignmentField
	if r.Title != nil {
		fields = append(fields, models.AssignmentFieldTitle)
	}
	if r.Description != nil {
		fields = append(fields, models.AssignmentFieldDescription)
	}
	if r.DueAt != nil {
		fields = append(fields, models.AssignmentFieldDueAt)
	}
	if r.ScoreWeight != nil {
		fields = append(fields, models.AssignmentFieldScoreWeight)
	}
	if r.AllowLate != nil {
		fields = append(fields, models.AssignmentFieldAllowLate)
	}
	if r.AllowResubmission != nil {
		fields = append(fields, models.AssignmentFieldAllowResubmission)
	}
	return fields
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID                uuid.UUID               `json:"id"`
	CourseID          uuid.UUID               `json:"course_id"`
	CourseTitle       string                  `json:"course_title,omitempty"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	DueAt             time.Time               `json:"due_at"`
	ScoreWeight       float64                 `json:"score_weight"`
	AllowLate         bool                    `json:"allow_late"`
	AllowResubmission bool                    `json:"allow_resubmission"`
	Status            models.AssignmentStatus `json:"status"`
	PublishedAt       *time.Time              `json:"published_at"`
	ClosedAt          *time.Time              `json:"closed_at"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// AssignmentWithSubmission pairs an assignment with the viewer's latest submission, if any.
type AssignmentWithSubmission struct {
	AssignmentResponse
	MySubmission *SubmissionResponse `json:"my_submission"`
}

// AutoCloseResponse reports how many assignments a sweep closed.
type AutoCloseResponse struct {
	Closed int64 `json:"closed"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                model.ID,
		CourseID:          model.CourseID,
		CourseTitle:       model.Course.Title,
		Title:             model.Title,
		Description:       model.Description,
		DueAt:             model.DueAt,
		ScoreWeight:       model.ScoreWeight,
		AllowLate:         model.AllowLate,
		AllowResubmission: model.AllowResubmission,
		Status:            model.Status,
		PublishedAt:       model.PublishedAt,
		ClosedAt:          model.ClosedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// NewAssignmentWithSubmission attaches the submission when present.
func NewAssignmentWithSubmission(model models.Assignment, submission *models.Submission) AssignmentWithSubmission {
	result := AssignmentWithSubmission{AssignmentResponse: NewAssignmentResponse(model)}
	if submission != nil {
		response := NewSubmissionResponse(*submission)
		result.MySubmission = &response
	}
	return result
}
