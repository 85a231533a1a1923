package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus is the lifecycle state of an assignment submission.
type SubmissionStatus string

const (
	SubmissionStatusDraft               SubmissionStatus = "draft"
	SubmissionStatusSubmitted           SubmissionStatus = "submitted"
	SubmissionStatusUnderReview         SubmissionStatus = "under_review"
	SubmissionStatusGraded              SubmissionStatus = "graded"
	SubmissionStatusReturnedForRevision SubmissionStatus = "returned_for_revision"
)

// under_review is only ever set administratively; the engine never moves into it.
var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionStatusDraft:               {SubmissionStatusDraft, SubmissionStatusSubmitted},
	SubmissionStatusSubmitted:           {SubmissionStatusSubmitted, SubmissionStatusGraded, SubmissionStatusReturnedForRevision},
	SubmissionStatusUnderReview:         {SubmissionStatusGraded, SubmissionStatusReturnedForRevision},
	SubmissionStatusGraded:              {SubmissionStatusGraded},
	SubmissionStatusReturnedForRevision: {SubmissionStatusSubmitted},
}

// ErrGradingWithoutGradedStatus guards the score/status invariant at persistence time.
var ErrGradingWithoutGradedStatus = errors.New("graded score requires graded status")

// IsValid reports whether the status is one of the known lifecycle states.
func (s SubmissionStatus) IsValid() bool {
	_, ok := submissionTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Submission content shapes.
const (
	ContentTypeText = "text"
	ContentTypeFile = "file"
	ContentTypeURL  = "url"
)

// SubmissionContent is exactly one of free text, files, or a URL.
type SubmissionContent struct {
	Type  string                              `gorm:"size:16;not null" json:"type"`
	Text  string                              `gorm:"type:text" json:"text,omitempty"`
	Files datatypes.JSONSlice[FileDescriptor] `json:"files,omitempty"`
	URL   string                              `gorm:"size:1024" json:"url,omitempty"`
}

// SubmissionRevision is an archived copy of previously submitted content.
type SubmissionRevision struct {
	RevisionNumber int               `json:"revision_number"`
	Content        SubmissionContent `json:"content"`
	SubmittedAt    *time.Time        `json:"submitted_at"`
	ArchivedAt     time.Time         `json:"archived_at"`
}

// AssignmentSubmission is a student's submission lineage for one assignment attempt.
// Later resubmissions are appended to Revisions instead of creating new rows.
type AssignmentSubmission struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	AssignmentID  uint `gorm:"not null;uniqueIndex:idx_submission_attempt;index" json:"assignment_id"`
	StudentID     uint `gorm:"not null;uniqueIndex:idx_submission_attempt;index" json:"student_id"`
	AttemptNumber int  `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"attempt_number"`
	// CourseID mirrors Assignment.CourseID for the grading queue and must be
	// kept in sync by hand if an assignment is ever moved.
	CourseID       uint                                    `gorm:"not null;index" json:"course_id"`
	Content        SubmissionContent                       `gorm:"embedded;embeddedPrefix:content_" json:"content"`
	Status         SubmissionStatus                        `gorm:"size:32;not null;index" json:"status"`
	SubmittedAt    *time.Time                              `gorm:"index" json:"submitted_at"`
	Revisions      datatypes.JSONSlice[SubmissionRevision] `json:"revisions"`
	Grading        Grading                                 `gorm:"embedded;embeddedPrefix:grading_" json:"grading"`
	ReturnFeedback string                                  `gorm:"type:text" json:"return_feedback"`
	ReturnedAt     *time.Time                              `json:"returned_at"`
	Version        int                                     `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time                               `json:"created_at"`
	UpdatedAt      time.Time                               `json:"updated_at"`
	Assignment     Assignment                              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Student        User                                    `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BeforeSave recomputes derived grading fields and enforces the score/status invariant.
func (s *AssignmentSubmission) BeforeSave(tx *gorm.DB) error {
	s.Grading.Recompute()
	if s.Grading.Score != nil && s.Status != SubmissionStatusGraded {
		return ErrGradingWithoutGradedStatus
	}
	return nil
}

// ArchiveContent moves the current content into the revision history and returns the new entry.
func (s *AssignmentSubmission) ArchiveContent(archivedAt time.Time) SubmissionRevision {
	revision := SubmissionRevision{
		RevisionNumber: len(s.Revisions) + 1,
		Content:        s.Content,
		SubmittedAt:    s.SubmittedAt,
		ArchivedAt:     archivedAt,
	}
	s.Revisions = append(s.Revisions, revision)
	return revision
}
