package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a learner to a published course. A learner enrolls in a course at most once.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_learner" json:"course_id"`
	LearnerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_learner;index" json:"learner_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	Course     Course    `gorm:"foreignKey:CourseID" json:"-"`
}

// TableName keeps the table name used by the rest of the platform.
func (Enrollment) TableName() string {
	return "course_enrollments"
}
