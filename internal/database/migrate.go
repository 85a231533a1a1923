package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Material{},
		&models.MaterialProgress{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Certificate{},
		&models.ActivityLog{},
		&models.Notification{},
		&models.DiscussionThread{},
		&models.DiscussionReply{},
		&models.UploadRecord{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
