package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationSubmissionGraded   = "submission_graded"
	NotificationSubmissionReturned = "submission_returned"
	NotificationCertificateIssued  = "certificate_issued"
	NotificationDiscussionReply    = "discussion_reply"
	NotificationDiscussionMention  = "discussion_mention"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      string            `gorm:"size:64;not null" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Data      datatypes.JSONMap `gorm:"type:json" json:"data"`
	Read      bool              `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time        `json:"read_at"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DiscussionThread is a course-scoped forum topic.
type DiscussionThread struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	CourseID   uint              `gorm:"not null;index" json:"course_id"`
	MaterialID *uint             `gorm:"index" json:"material_id"`
	Title      string            `gorm:"size:255;not null" json:"title"`
	Body       string            `gorm:"type:text;not null" json:"body"`
	AuthorID   uint              `gorm:"not null;index" json:"author_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	ReplyCount int               `gorm:"not null;default:0" json:"reply_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Author     User              `gorm:"foreignKey:AuthorID" json:"-"`
	Replies    []DiscussionReply `gorm:"foreignKey:ThreadID" json:"replies,omitempty"`
}

// DiscussionReply is a post within a thread; ParentID nests it under another reply.
type DiscussionReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
}
