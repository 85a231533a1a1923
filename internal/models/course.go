package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Course groups materials and assignments authored by a single mentor.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:160;uniqueIndex" json:"slug"`
	Category    string    `gorm:"size:128" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	MentorID    uint      `gorm:"index;not null" json:"mentor_id"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Mentor      User      `gorm:"foreignKey:MentorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"mentor"`
}

// IsOwnedBy reports whether the user authored the course.
func (c Course) IsOwnedBy(userID uint) bool {
	return userID != 0 && c.MentorID == userID
}

// Enrollment grants a student access to a course's content.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Material types accepted by the catalog.
const (
	MaterialTypeVideo    = "video"
	MaterialTypeDocument = "document"
	MaterialTypeImage    = "image"
	MaterialTypeLink     = "link"
)

// Material is one unit of course content. Order is global across the course;
// Chapter only groups materials for display.
type Material struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index:idx_material_course_order" json:"course_id"`
	Chapter     string    `gorm:"size:255" json:"chapter"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	ContentURL  string    `gorm:"size:512" json:"content_url"`
	FileID      string    `gorm:"size:255" json:"-"`
	Order       int       `gorm:"column:sort_order;not null;default:0;index:idx_material_course_order" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeSave normalises the material type.
func (m *Material) BeforeSave(tx *gorm.DB) error {
	m.Type = normalizeMaterialType(m.Type)
	return nil
}

func normalizeMaterialType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case MaterialTypeVideo:
		return MaterialTypeVideo
	case MaterialTypeImage:
		return MaterialTypeImage
	case MaterialTypeLink:
		return MaterialTypeLink
	default:
		return MaterialTypeDocument
	}
}
