package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the lifecycle state of an assignment: draft -> published -> closed.
type AssignmentStatus string

const (
	// AssignmentStatusDraft is fully editable and invisible to learners.
	AssignmentStatusDraft AssignmentStatus = "draft"
	// AssignmentStatusPublished accepts submissions; only title and description stay editable.
	AssignmentStatusPublished AssignmentStatus = "published"
	// AssignmentStatusClosed is terminal.
	AssignmentStatusClosed AssignmentStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusDraft, AssignmentStatusPublished, AssignmentStatusClosed:
		return true
	default:
		return false
	}
}

// VisibleToLearners reports whether enrolled learners may see the assignment.
func (s AssignmentStatus) VisibleToLearners() bool {
	switch s {
	case AssignmentStatusPublished, AssignmentStatusClosed:
		return true
	case AssignmentStatusDraft:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	switch s {
	case AssignmentStatusDraft:
		return next == AssignmentStatusPublished || next == AssignmentStatusClosed
	case AssignmentStatusPublished:
		return next == AssignmentStatusClosed
	case AssignmentStatusClosed:
		return false
	default:
		return false
	}
}

// AssignmentField names a mutable assignment attribute.
type AssignmentField string

const (
	AssignmentFieldTitle             AssignmentField = "title"
	AssignmentFieldDescription       AssignmentField = "description"
	AssignmentFieldDueAt             AssignmentField = "due_at"
	AssignmentFieldScoreWeight       AssignmentField = "score_weight"
	AssignmentFieldAllowLate         AssignmentField = "allow_late"
	AssignmentFieldAllowResubmission AssignmentField = "allow_resubmission"
)

// EditDecision is the outcome of checking requested fields against a status.
type EditDecision int

const (
	// EditAllowed means every requested field may change.
	EditAllowed EditDecision = iota
	// EditRestricted means the status only allows a subset of the requested fields.
	EditRestricted
	// EditForbidden means nothing may change in this status.
	EditForbidden
)

// CheckEdit decides whether fields may change while the assignment is in status s.
// The second return value lists the requested fields that are not editable.
func (s AssignmentStatus) CheckEdit(fields []AssignmentField) (EditDecision, []AssignmentField) {
	switch s {
	case AssignmentStatusDraft:
		return EditAllowed, nil
	case AssignmentStatusPublished:
		var denied []AssignmentField
		for _, field := range fields {
			if field != AssignmentFieldTitle && field != AssignmentFieldDescription {
				denied = append(denied, field)
			}
		}
		if len(denied) > 0 {
			return EditRestricted, denied
		}
		return EditAllowed, nil
	case AssignmentStatusClosed:
		return EditForbidden, fields
	default:
		return EditForbidden, fields
	}
}

// Assignment belongs to a course and moves through the draft/published/closed lifecycle.
type Assignment struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"course_id"`
	Title             string           `gorm:"size:200;not null" json:"title"`
	Description       string           `gorm:"type:text;not null" json:"description"`
	DueAt             time.Time        `gorm:"not null;index" json:"due_at"`
	ScoreWeight       float64          `gorm:"not null" json:"score_weight"`
	AllowLate         bool             `gorm:"not null;default:false" json:"allow_late"`
	AllowResubmission bool             `gorm:"not null;default:false" json:"allow_resubmission"`
	Status            AssignmentStatus `gorm:"size:16;not null;index" json:"status"`
	PublishedAt       *time.Time       `json:"published_at"`
	ClosedAt          *time.Time       `json:"closed_at"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Course            Course           `gorm:"foreignKey:CourseID" json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueAt)
}

// MissingRequiredFields lists the fields that must be filled before publishing.
func (a Assignment) MissingRequiredFields() []AssignmentField {
	var missing []AssignmentField
	if a.Title == "" {
		missing = append(missing, AssignmentFieldTitle)
	}
	if a.Description == "" {
		missing = append(missing, AssignmentFieldDescription)
	}
	if a.DueAt.IsZero() {
		missing = append(missing, AssignmentFieldDueAt)
	}
	return missing
}
