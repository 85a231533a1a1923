package models

import "time"

// Assignment is a mentor-authored task owned by exactly one course.
type Assignment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CourseID     uint           `gorm:"not null;index" json:"course_id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Instructions string         `gorm:"type:text" json:"instructions"`
	QuestionFile FileDescriptor `gorm:"embedded;embeddedPrefix:question_file_" json:"question_file"`
	MaxPoints    float64        `gorm:"not null;default:100" json:"max_points"`
	MaxAttempts  int            `gorm:"not null;default:1" json:"max_attempts"`
	IsPublished  bool           `gorm:"not null;default:false" json:"is_published"`
	PublishDate  *time.Time     `json:"publish_date"`
	OrderIndex   int            `gorm:"not null;default:0" json:"order_index"`
	CreatedBy    uint           `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Course       Course         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsAvailable reports whether students may see and submit to the assignment at the reference time.
func (a Assignment) IsAvailable(reference time.Time) bool {
	if !a.IsPublished {
		return false
	}
	if a.PublishDate != nil && a.PublishDate.After(reference) {
		return false
	}
	return true
}

// EffectiveMaxAttempts never reports fewer than one attempt.
func (a Assignment) EffectiveMaxAttempts() int {
	if a.MaxAttempts < 1 {
		return 1
	}
	return a.MaxAttempts
}
