package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audited actions.
const (
	ActivityAssignmentDeleted  = "assignment.deleted"
	ActivitySubmissionGraded   = "submission.graded"
	ActivitySubmissionReturned = "submission.returned"
	ActivityCertificateIssued  = "certificate.issued"
	ActivityCertificateRevoked = "certificate.revoked"
)

// ActivityLog captures auditable events triggered by mentors, students and administrators.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
