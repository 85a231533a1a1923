package models

import "time"

// MaterialProgress is the per-user completion state of a single material.
// At most one row exists per (user, material).
type MaterialProgress struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_progress_user_material;index:idx_progress_user_course" json:"user_id"`
	MaterialID uint `gorm:"not null;uniqueIndex:idx_progress_user_material" json:"material_id"`
	// CourseID mirrors Material.CourseID for per-course aggregation and must be
	// rewritten by hand if a material is ever moved to another course.
	CourseID          uint       `gorm:"not null;index:idx_progress_user_course" json:"course_id"`
	IsCompleted       bool       `gorm:"not null;default:false" json:"is_completed"`
	MarkedCompletedAt *time.Time `json:"marked_completed_at"`
	Rating            *int       `json:"rating"`
	Feedback          string     `gorm:"type:text" json:"feedback"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName keeps the singular table name used by reporting queries.
func (MaterialProgress) TableName() string {
	return "material_progress"
}
