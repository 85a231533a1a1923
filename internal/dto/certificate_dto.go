package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// Eligibility reasons, in evaluation priority.
const (
	EligibilityNotEnrolled    = "not_enrolled"
	EligibilityAlreadyClaimed = "already_claimed"
	EligibilityEligible       = "eligible"
	EligibilityIncomplete     = "incomplete"
	// EligibilityRevoked marks a course whose certificate was revoked; it is never reissued.
	EligibilityRevoked = "revoked"
)

// EligibilityResponse reports whether the caller may claim a certificate.
type EligibilityResponse struct {
	Eligible             bool   `json:"eligible"`
	Reason               string `json:"reason"`
	CompletionPercentage int    `json:"completion_percentage"`
}

// CertificateResponse is the owner's view of a certificate.
type CertificateResponse struct {
	ID                   uint       `json:"id"`
	PublicID             string     `json:"public_id"`
	CertificateNumber    string     `json:"certificate_number"`
	UserID               uint       `json:"user_id"`
	CourseID             uint       `json:"course_id"`
	RecipientName        string     `json:"recipient_name"`
	CourseTitle          string     `json:"course_title"`
	CourseCategory       string     `json:"course_category"`
	MentorName           string     `json:"mentor_name"`
	MaterialCount        int        `json:"material_count"`
	DurationHours        float64    `json:"duration_hours"`
	CompletionPercentage int        `json:"completion_percentage"`
	CompletionDate       time.Time  `json:"completion_date"`
	IssuedAt             time.Time  `json:"issued_at"`
	ViewCount            int64      `json:"view_count"`
	DownloadCount        int64      `json:"download_count"`
	Status               string     `json:"status"`
	RevokedAt            *time.Time `json:"revoked_at"`
}

// PublicCertificateResponse is the unauthenticated verification view.
type PublicCertificateResponse struct {
	PublicID          string    `json:"public_id"`
	CertificateNumber string    `json:"certificate_number"`
	RecipientName     string    `json:"recipient_name"`
	CourseTitle       string    `json:"course_title"`
	CourseCategory    string    `json:"course_category"`
	MentorName        string    `json:"mentor_name"`
	MaterialCount     int       `json:"material_count"`
	DurationHours     float64   `json:"duration_hours"`
	CompletionDate    time.Time `json:"completion_date"`
	IssuedAt          time.Time `json:"issued_at"`
	Status            string    `json:"status"`
	Valid             bool      `json:"valid"`
}

// CertificateGenerateResponse carries the certificate and whether this call issued it.
type CertificateGenerateResponse struct {
	Certificate CertificateResponse `json:"certificate"`
	Reason      string              `json:"reason"`
	Created     bool                `json:"created"`
}

// NewCertificateResponse converts a certificate model into its DTO.
func NewCertificateResponse(model models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:                   model.ID,
		PublicID:             model.PublicID,
		CertificateNumber:    model.CertificateNumber,
		UserID:               model.UserID,
		CourseID:             model.CourseID,
		RecipientName:        model.RecipientName,
		CourseTitle:          model.CourseTitle,
		CourseCategory:       model.CourseCategory,
		MentorName:           model.MentorName,
		MaterialCount:        model.MaterialCount,
		DurationHours:        model.DurationHours,
		CompletionPercentage: model.CompletionPercentage,
		CompletionDate:       model.CompletionDate,
		IssuedAt:             model.IssuedAt,
		ViewCount:            model.ViewCount,
		DownloadCount:        model.DownloadCount,
		Status:               model.Status,
		RevokedAt:            model.RevokedAt,
	}
}

// NewPublicCertificateResponse strips owner-only fields.
func NewPublicCertificateResponse(model models.Certificate) PublicCertificateResponse {
	return PublicCertificateResponse{
		PublicID:          model.PublicID,
		CertificateNumber: model.CertificateNumber,
		RecipientName:     model.RecipientName,
		CourseTitle:       model.CourseTitle,
		CourseCategory:    model.CourseCategory,
		MentorName:        model.MentorName,
		MaterialCount:     model.MaterialCount,
		DurationHours:     model.DurationHours,
		CompletionDate:    model.CompletionDate,
		IssuedAt:          model.IssuedAt,
		Status:            model.Status,
		Valid:             model.IsActive(),
	}
}
