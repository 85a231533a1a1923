package models

import "time"

// Certificate statuses.
const (
	CertificateStatusActive  = "active"
	CertificateStatusRevoked = "revoked"
	CertificateStatusExpired = "expired"
)

// Certificate is issued once per (user, course). Course and recipient details are
// snapshotted at issuance so later edits never alter an issued certificate.
type Certificate struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	PublicID             string     `gorm:"size:64;uniqueIndex;not null" json:"public_id"`
	CertificateNumber    string     `gorm:"size:64;uniqueIndex;not null" json:"certificate_number"`
	UserID               uint       `gorm:"not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID             uint       `gorm:"not null;uniqueIndex:idx_certificate_user_course;index" json:"course_id"`
	RecipientName        string     `gorm:"size:255;not null" json:"recipient_name"`
	CourseTitle          string     `gorm:"size:255;not null" json:"course_title"`
	CourseCategory       string     `gorm:"size:128" json:"course_category"`
	MentorName           string     `gorm:"size:255" json:"mentor_name"`
	MaterialCount        int        `gorm:"not null" json:"material_count"`
	DurationHours        float64    `gorm:"not null" json:"duration_hours"`
	CompletionPercentage int        `gorm:"not null" json:"completion_percentage"`
	CompletionDate       time.Time  `gorm:"not null" json:"completion_date"`
	IssuedAt             time.Time  `gorm:"not null" json:"issued_at"`
	ViewCount            int64      `gorm:"not null;default:0" json:"view_count"`
	DownloadCount        int64      `gorm:"not null;default:0" json:"download_count"`
	Status               string     `gorm:"size:16;not null;default:'active';index" json:"status"`
	RevokedAt            *time.Time `json:"revoked_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsActive reports whether the certificate is currently valid.
func (c Certificate) IsActive() bool {
	return c.Status == CertificateStatusActive
}

// EstimatedDurationHours derives the course length credited on a certificate.
func EstimatedDurationHours(materialCount int) float64 {
	hours := float64(materialCount) * 0.5
	if hours < 1 {
		return 1
	}
	return hours
}
