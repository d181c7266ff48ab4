package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (p *Profile) BeforeCreate(*gorm.DB) error { assignID(&p.ID); return nil }

// BeforeCreate assigns a UUID primary key when none was provided.
func (c *Course) BeforeCreate(*gorm.DB) error { assignID(&c.ID); return nil }

// BeforeCreate assigns a UUID primary key when none was provided.
func (e *Enrollment) BeforeCreate(*gorm.DB) error { assignID(&e.ID); return nil }

// BeforeCreate assigns a UUID primary key when none was provided.
func (a *Assignment) BeforeCreate(*gorm.DB) error { assignID(&a.ID); return nil }

// BeforeCreate assigns a UUID primary key when none was provided.
func (s *Submission) BeforeCreate(*gorm.DB) error { assignID(&s.ID); return nil }

// BeforeCreate assigns a UUID primary key when none was provided.
func (a *ActivityLog) BeforeCreate(*gorm.DB) error { assignID(&a.ID); return nil }
