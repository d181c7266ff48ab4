package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// AssignmentGradeItem is one assignment row of a learner's grade sheet.
type AssignmentGradeItem struct {
	AssignmentID     uuid.UUID                `json:"assignment_id"`
	AssignmentTitle  string                   `json:"assignment_title"`
	AssignmentStatus models.AssignmentStatus  `json:"assignment_status"`
	DueAt            time.Time                `json:"due_at"`
	ScoreWeight      float64                  `json:"score_weight"`
	SubmissionID     *uuid.UUID               `json:"submission_id"`
	SubmittedAt      *time.Time               `json:"submitted_at"`
	Status           *models.SubmissionStatus `json:"status"`
	Late             *bool                    `json:"late"`
	Score            *float64                 `json:"score"`
	Feedback         *string                  `json:"feedback"`
	GradedAt         *time.Time               `json:"graded_at"`
}

// CourseGradeSummary aggregates a learner's grades for one enrolled course.
type CourseGradeSummary struct {
	CourseID          uuid.UUID             `json:"course_id"`
	CourseTitle       string                `json:"course_title"`
	InstructorName    string                `json:"instructor_name"`
	TotalAssignments  int                   `json:"total_assignments"`
	GradedAssignments int                   `json:"graded_assignments"`
	TotalScore        *float64              `json:"total_score"`
	MaxPossibleScore  float64               `json:"max_possible_score"`
	Assignments       []AssignmentGradeItem `json:"assignments"`
}

// MyGradesResponse lists a learner's grade summaries across courses.
type MyGradesResponse struct {
	Courses []CourseGradeSummary `json:"courses"`
}

// NewAssignmentGradeItem pairs an assignment with the learner's latest submission.
func NewAssignmentGradeItem(assignment models.Assignment, submission *models.Submission) AssignmentGradeItem {
	item := AssignmentGradeItem{
		AssignmentID:     assignment.ID,
		AssignmentTitle:  assignment.Title,
		AssignmentStatus: assignment.Status,
		DueAt:            assignment.DueAt,
		ScoreWeight:      assignment.ScoreWeight,
	}
	if submission == nil {
		return item
	}

	id := submission.ID
	submittedAt := submission.SubmittedAt
	status := submission.Status
	late := submission.Late
	item.SubmissionID = &id
	item.SubmittedAt = &submittedAt
	item.Status = &status
	item.Late = &late
	item.Score = submission.Score
	item.Feedback = submission.Feedback
	item.GradedAt = submission.GradedAt
	return item
}
