package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// ProgressToggleRequest marks a material completed or not.
type ProgressToggleRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// MaterialRatingRequest rates a material. Range checks happen in the service.
type MaterialRatingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback" validate:"omitempty,max=2000"`
}

// ProgressResponse is the serialized progress record.
type ProgressResponse struct {
	ID                uint       `json:"id"`
	UserID            uint       `json:"user_id"`
	MaterialID        uint       `json:"material_id"`
	CourseID          uint       `json:"course_id"`
	IsCompleted       bool       `json:"is_completed"`
	MarkedCompletedAt *time.Time `json:"marked_completed_at"`
	Rating            *int       `json:"rating"`
	Feedback          string     `json:"feedback"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// MaterialOpenResponse is returned when a learner opens a material.
// Progress is nil for the course mentor, who is not tracked.
type MaterialOpenResponse struct {
	Material   MaterialResponse  `json:"material"`
	IsUnlocked bool              `json:"is_unlocked"`
	Progress   *ProgressResponse `json:"progress"`
}

// ProgressOverview summarises course completion.
type ProgressOverview struct {
	Total       int  `json:"total"`
	Completed   int  `json:"completed"`
	Percentage  int  `json:"percentage"`
	NoMaterials bool `json:"no_materials"`
}

// MaterialProgressItem is one row of the per-material breakdown.
type MaterialProgressItem struct {
	MaterialID        uint       `json:"material_id"`
	Title             string     `json:"title"`
	Chapter           string     `json:"chapter"`
	Order             int        `json:"order"`
	IsUnlocked        bool       `json:"is_unlocked"`
	IsCompleted       bool       `json:"is_completed"`
	MarkedCompletedAt *time.Time `json:"marked_completed_at"`
	Rating            *int       `json:"rating"`
}

// CourseProgressResponse is the learner's progress report for a course.
type CourseProgressResponse struct {
	Overview         ProgressOverview       `json:"overview"`
	MaterialProgress []MaterialProgressItem `json:"material_progress"`
}

// NewProgressResponse converts a progress model into its DTO.
func NewProgressResponse(model models.MaterialProgress) ProgressResponse {
	return ProgressResponse{
		ID:                model.ID,
		UserID:            model.UserID,
		MaterialID:        model.MaterialID,
		CourseID:          model.CourseID,
		IsCompleted:       model.IsCompleted,
		MarkedCompletedAt: model.MarkedCompletedAt,
		Rating:            model.Rating,
		Feedback:          model.Feedback,
		UpdatedAt:         model.UpdatedAt,
	}
}
