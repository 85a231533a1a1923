package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

const isoLayout = time.RFC3339

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title        string  `form:"title" json:"title" validate:"required,min=3,max=255"`
	Description  string  `form:"description" json:"description" validate:"omitempty,max=10000"`
	Instructions string  `form:"instructions" json:"instructions" validate:"omitempty,max=20000"`
	MaxPoints    float64 `form:"max_points" json:"max_points" validate:"omitempty,gt=0,lte=1000"`
	MaxAttempts  int     `form:"max_attempts" json:"max_attempts" validate:"omitempty,min=1,max=100"`
	IsPublished  bool    `form:"is_published" json:"is_published"`
	PublishDate  string  `form:"publish_date" json:"publish_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	OrderIndex   int     `form:"order_index" json:"order_index" validate:"omitempty,min=0"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title            *string  `form:"title" json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string  `form:"description" json:"description" validate:"omitempty,max=10000"`
	Instructions     *string  `form:"instructions" json:"instructions" validate:"omitempty,max=20000"`
	MaxPoints        *float64 `form:"max_points" json:"max_points" validate:"omitempty,gt=0,lte=1000"`
	MaxAttempts      *int     `form:"max_attempts" json:"max_attempts" validate:"omitempty,min=1,max=100"`
	IsPublished      *bool    `form:"is_published" json:"is_published"`
	PublishDate      *string  `form:"publish_date" json:"publish_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ClearPublishDate bool     `form:"clear_publish_date" json:"clear_publish_date"`
	OrderIndex       *int     `form:"order_index" json:"order_index" validate:"omitempty,min=0"`
}

// FileResponse describes a stored file.
type FileResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID           uint          `json:"id"`
	CourseID     uint          `json:"course_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Instructions string        `json:"instructions"`
	QuestionFile *FileResponse `json:"question_file"`
	MaxPoints    float64       `json:"max_points"`
	MaxAttempts  int           `json:"max_attempts"`
	IsPublished  bool          `json:"is_published"`
	PublishDate  *time.Time    `json:"publish_date"`
	IsAvailable  bool          `json:"is_available"`
	OrderIndex   int           `json:"order_index"`
	CreatedBy    uint          `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ParsePublishDate parses the optional RFC3339 publish date.
func ParsePublishDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(isoLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// NewFileResponse converts a descriptor, returning nil when no file is referenced.
func NewFileResponse(file models.FileDescriptor) *FileResponse {
	if file.IsZero() {
		return nil
	}
	return &FileResponse{
		ID:       file.ID,
		URL:      file.URL,
		Name:     file.Name,
		Size:     file.Size,
		MimeType: file.MimeType,
	}
}

// NewAssignmentResponse converts a model into a DTO as seen at the reference time.
func NewAssignmentResponse(model models.Assignment, reference time.Time) AssignmentResponse {
	return AssignmentResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		Title:        model.Title,
		Description:  model.Description,
		Instructions: model.Instructions,
		QuestionFile: NewFileResponse(model.QuestionFile),
		MaxPoints:    model.MaxPoints,
		MaxAttempts:  model.EffectiveMaxAttempts(),
		IsPublished:  model.IsPublished,
		PublishDate:  model.PublishDate,
		IsAvailable:  model.IsAvailable(reference),
		OrderIndex:   model.OrderIndex,
		CreatedBy:    model.CreatedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, reference time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, reference))
	}

	return responses
}
