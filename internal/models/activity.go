package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog captures auditable write actions performed by instructors and learners.
type ActivityLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uuid.UUID        `gorm:"type:uuid" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
