package models

import (
	"time"

	"github.com/google/uuid"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	// CourseStatusDraft is only visible to the owning instructor.
	CourseStatusDraft CourseStatus = "draft"
	// CourseStatusPublished is visible to learners and open for enrollment.
	CourseStatusPublished CourseStatus = "published"
	// CourseStatusArchived is terminal and set outside the API.
	CourseStatusArchived CourseStatus = "archived"
)

// Valid reports whether the status is one of the known values.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	default:
		return false
	}
}

// Course is owned by exactly one instructor.
type Course struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID    `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Title        string       `gorm:"size:200;not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Category     string       `gorm:"size:64;not null" json:"category"`
	Difficulty   string       `gorm:"size:32;not null" json:"difficulty"`
	Status       CourseStatus `gorm:"size:16;not null;index" json:"status"`
	PublishedAt  *time.Time   `json:"published_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Instructor   Profile      `gorm:"foreignKey:InstructorID" json:"-"`
}
