package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// EnrollmentCreateRequest asks to enroll the caller in a course.
type EnrollmentCreateRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

// EnrollmentResponse is the serialized enrollment with course information.
type EnrollmentResponse struct {
	ID               uuid.UUID `json:"id"`
	CourseID         uuid.UUID `json:"course_id"`
	CourseTitle      string    `json:"course_title"`
	CourseCategory   string    `json:"course_category"`
	CourseDifficulty string    `json:"course_difficulty"`
	InstructorName   string    `json:"instructor_name"`
	EnrolledAt       time.Time `json:"enrolled_at"`
}

// NewEnrollmentResponse converts an enrollment to DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		CourseTitle:      model.Course.Title,
		CourseCategory:   model.Course.Category,
		CourseDifficulty: model.Course.Difficulty,
		InstructorName:   model.Course.Instructor.FullName,
		EnrolledAt:       model.EnrolledAt,
	}
}

// NewEnrollmentResponseSlice converts enrollments to DTOs.
func NewEnrollmentResponseSlice(items []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewEnrollmentResponse(item))
	}
	return responses
}
