package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Supported user roles.
const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// User represents an account that can learn, mentor, or administer.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:'student'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeSave normalises identity fields prior to persistence.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = NormalizeRole(u.Role)
	return nil
}

// IsMentor reports whether the user may author courses.
func (u User) IsMentor() bool {
	return u.Role == RoleMentor || u.Role == RoleAdmin
}

// NormalizeRole maps arbitrary input to a known role, defaulting to student.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleMentor:
		return RoleMentor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}
