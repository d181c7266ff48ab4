package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// Migrate creates or updates the tables and indexes owned by the API.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.ActivityLog{},
	)
}
