package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Category    string `json:"category" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	IsPublished bool   `json:"is_published"`
}

// CourseListRequest narrows the course catalogue.
type CourseListRequest struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Mine     bool   `query:"mine"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// CourseResponse is the serialized course.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	MentorID    uint      `json:"mentor_id"`
	MentorName  string    `json:"mentor_name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseListResponse wraps a page of courses.
type CourseListResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// EnrollmentResponse reports an enrollment and whether this call created it.
type EnrollmentResponse struct {
	CourseID   uint      `json:"course_id"`
	UserID     uint      `json:"user_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Created    bool      `json:"created"`
}

// MaterialCreateRequest adds a material to a course. A file part may accompany it.
type MaterialCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,min=1,max=255"`
	Chapter     string `form:"chapter" json:"chapter" validate:"omitempty,max=255"`
	Description string `form:"description" json:"description"`
	Type        string `form:"type" json:"type" validate:"required,oneof=video document image link"`
	ContentURL  string `form:"content_url" json:"content_url" validate:"omitempty,url"`
	Order       *int   `form:"order" json:"order" validate:"omitempty,min=0"`
}

// MaterialResponse is the serialized material.
type MaterialResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Chapter     string    `json:"chapter"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	ContentURL  string    `json:"content_url"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaterialStatusResponse decorates a material with the caller's lock and completion state.
type MaterialStatusResponse struct {
	MaterialResponse
	IsUnlocked  bool `json:"is_unlocked"`
	IsCompleted bool `json:"is_completed"`
}

// ChapterResponse groups materials under their chapter label.
type ChapterResponse struct {
	Chapter   string                   `json:"chapter"`
	Materials []MaterialStatusResponse `json:"materials"`
}

// MaterialCatalogResponse lists a course's materials in unlock order.
type MaterialCatalogResponse struct {
	CourseID  uint                     `json:"course_id"`
	IsOwner   bool                     `json:"is_owner"`
	Materials []MaterialStatusResponse `json:"materials"`
	Chapters  []ChapterResponse        `json:"chapters"`
}

// NewCourseResponse converts a course model into its DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Slug:        model.Slug,
		Category:    model.Category,
		Description: model.Description,
		MentorID:    model.MentorID,
		MentorName:  model.Mentor.Name,
		IsPublished: model.IsPublished,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewMaterialResponse converts a material model into its DTO.
func NewMaterialResponse(model models.Material) MaterialResponse {
	return MaterialResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Chapter:     model.Chapter,
		Title:       model.Title,
		Description: model.Description,
		Type:        model.Type,
		ContentURL:  model.ContentURL,
		Order:       model.Order,
		CreatedAt:   model.CreatedAt,
	}
}

// GroupByChapter keeps the incoming order and groups by first appearance of each chapter.
func GroupByChapter(items []MaterialStatusResponse) []ChapterResponse {
	chapters := make([]ChapterResponse, 0)
	index := make(map[string]int)
	for _, item := range items {
		pos, ok := index[item.Chapter]
		if !ok {
			pos = len(chapters)
			index[item.Chapter] = pos
			chapters = append(chapters, ChapterResponse{Chapter: item.Chapter})
		}
		chapters[pos].Materials = append(chapters[pos].Materials, item)
	}
	return chapters
}
