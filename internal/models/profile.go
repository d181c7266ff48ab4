package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a profile may do on the platform.
type Role string

const (
	// RoleLearner enrolls in courses and submits work.
	RoleLearner Role = "learner"
	// RoleInstructor owns courses and grades submissions.
	RoleInstructor Role = "instructor"
)

// Profile is the platform identity provisioned by the signup flow.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Role      Role      `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
