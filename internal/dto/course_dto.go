package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// CourseCreateRequest describes the payload for creating a draft course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,max=64"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=64"`
	Difficulty  *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// CourseListQuery captures catalogue query parameters.
type CourseListQuery struct {
	Search     string `query:"search" validate:"omitempty,max=100"`
	Category   string `query:"category" validate:"omitempty,max=64"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Sort       string `query:"sort" validate:"omitempty,oneof=latest popular"`
	Page       int    `query:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// CourseResponse is the serialized course.
type CourseResponse struct {
	ID              uuid.UUID           `json:"id"`
	InstructorID    uuid.UUID           `json:"instructor_id"`
	InstructorName  string              `json:"instructor_name"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Category        string              `json:"category"`
	Difficulty      string              `json:"difficulty"`
	Status          models.CourseStatus `json:"status"`
	EnrollmentCount int64               `json:"enrollment_count"`
	PublishedAt     *time.Time          `json:"published_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// CourseDetailResponse adds the viewer's enrollment state.
type CourseDetailResponse struct {
	CourseResponse
	IsEnrolled bool `json:"is_enrolled"`
}

// PaginationMeta describes a paged list.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}

// NewCourseResponse converts a model and its counters to DTO.
func NewCourseResponse(course models.Course, enrollmentCount int64) CourseResponse {
	return CourseResponse{
		ID:              course.ID,
		InstructorID:    course.InstructorID,
		InstructorName:  course.Instructor.FullName,
		Title:           course.Title,
		Description:     course.Description,
		Category:        course.Category,
		Difficulty:      course.Difficulty,
		Status:          course.Status,
		EnrollmentCount: enrollmentCount,
		PublishedAt:     course.PublishedAt,
		CreatedAt:       course.CreatedAt,
		UpdatedAt:       course.UpdatedAt,
	}
}

// NewCourseResponseSlice converts catalogue rows to DTOs.
func NewCourseResponseSlice(items []repository.CourseSummary) []CourseResponse {
	responses := make([]CourseResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewCourseResponse(item.Course, item.EnrollmentCount))
	}
	return responses
}
