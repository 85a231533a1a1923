package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// SubmissionRequest carries text or URL content. File content arrives as multipart parts.
type SubmissionRequest struct {
	ContentType string `form:"content_type" json:"content_type" validate:"required,oneof=text file url"`
	Text        string `form:"text" json:"text" validate:"omitempty,max=100000"`
	URL         string `form:"url" json:"url" validate:"omitempty,max=1024"`
}

// GradeRequest records a mentor's grade.
type GradeRequest struct {
	Score        *float64 `json:"score" validate:"required"`
	Feedback     string   `json:"feedback" validate:"omitempty,max=10000"`
	PrivateNotes string   `json:"private_notes" validate:"omitempty,max=10000"`
}

// ReturnRequest sends a submission back to the student.
type ReturnRequest struct {
	Feedback string `json:"feedback" validate:"required,max=10000"`
}

// SubmissionListRequest filters the grading queue.
type SubmissionListRequest struct {
	AssignmentID uint   `query:"assignment_id"`
	Status       string `query:"status" validate:"omitempty,oneof=draft submitted under_review graded returned_for_revision"`
}

// SubmissionContentResponse is one content snapshot.
type SubmissionContentResponse struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Files []FileResponse `json:"files,omitempty"`
	URL   string         `json:"url,omitempty"`
}

// RevisionResponse is an archived content snapshot.
type RevisionResponse struct {
	RevisionNumber int                       `json:"revision_number"`
	Content        SubmissionContentResponse `json:"content"`
	SubmittedAt    *time.Time                `json:"submitted_at"`
	ArchivedAt     time.Time                 `json:"archived_at"`
}

// GradingResponse exposes the grading sub-document. PrivateNotes is only set for the course mentor.
type GradingResponse struct {
	Score        *float64   `json:"score"`
	LetterGrade  string     `json:"letter_grade"`
	Passed       *bool      `json:"passed"`
	Feedback     string     `json:"feedback"`
	PrivateNotes string     `json:"private_notes,omitempty"`
	GradedBy     *uint      `json:"graded_by"`
	GradedAt     *time.Time `json:"graded_at"`
}

// SubmissionResponse is the serialized submission.
type SubmissionResponse struct {
	ID              uint                      `json:"id"`
	AssignmentID    uint                      `json:"assignment_id"`
	AssignmentTitle string                    `json:"assignment_title"`
	StudentID       uint                      `json:"student_id"`
	StudentName     string                    `json:"student_name"`
	CourseID        uint                      `json:"course_id"`
	AttemptNumber   int                       `json:"attempt_number"`
	Content         SubmissionContentResponse `json:"content"`
	Status          string                    `json:"status"`
	SubmittedAt     *time.Time                `json:"submitted_at"`
	Revisions       []RevisionResponse        `json:"revisions"`
	Grading         *GradingResponse          `json:"grading"`
	ReturnFeedback  string                    `json:"return_feedback"`
	ReturnedAt      *time.Time                `json:"returned_at"`
	Version         int                       `json:"version"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func newSubmissionContentResponse(content models.SubmissionContent) SubmissionContentResponse {
	response := SubmissionContentResponse{
		Type: content.Type,
		Text: content.Text,
		URL:  content.URL,
	}
	for _, file := range content.Files {
		if converted := NewFileResponse(file); converted != nil {
			response.Files = append(response.Files, *converted)
		}
	}
	return response
}

// NewSubmissionResponse converts a model into a DTO; includePrivate exposes mentor-only notes.
func NewSubmissionResponse(model models.AssignmentSubmission, includePrivate bool) SubmissionResponse {
	revisions := make([]RevisionResponse, 0, len(model.Revisions))
	for _, revision := range model.Revisions {
		revisions = append(revisions, RevisionResponse{
			RevisionNumber: revision.RevisionNumber,
			Content:        newSubmissionContentResponse(revision.Content),
			SubmittedAt:    revision.SubmittedAt,
			ArchivedAt:     revision.ArchivedAt,
		})
	}

	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		AssignmentTitle: model.Assignment.Title,
		StudentID:       model.StudentID,
		StudentName:     model.Student.Name,
		CourseID:        model.CourseID,
		AttemptNumber:   model.AttemptNumber,
		Content:         newSubmissionContentResponse(model.Content),
		Status:          string(model.Status),
		SubmittedAt:     model.SubmittedAt,
		Revisions:       revisions,
		ReturnFeedback:  model.ReturnFeedback,
		ReturnedAt:      model.ReturnedAt,
		Version:         model.Version,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Grading.IsGraded() {
		grading := &GradingResponse{
			Score:       model.Grading.Score,
			LetterGrade: model.Grading.LetterGrade,
			Passed:      model.Grading.Passed,
			Feedback:    model.Grading.Feedback,
			GradedBy:    model.Grading.GradedBy,
			GradedAt:    model.Grading.GradedAt,
		}
		if includePrivate {
			grading.PrivateNotes = model.Grading.PrivateNotes
		}
		response.Grading = grading
	}

	return response
}

// NewSubmissionResponseSlice converts submissions for the course mentor.
func NewSubmissionResponseSlice(items []models.AssignmentSubmission, includePrivate bool) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSubmissionResponse(item, includePrivate))
	}
	return out
}
