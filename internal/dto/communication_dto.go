package dto

import (
	"time"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// NotificationCreateRequest describes a notification to deliver.
type NotificationCreateRequest struct {
	UserID  uint                   `json:"user_id" validate:"required"`
	Type    string                 `json:"type" validate:"required,max=64"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{} `json:"data"`
}

// NotificationListRequest pages through a user's notifications.
type NotificationListRequest struct {
	UnreadOnly bool `query:"unread"`
	Limit      int  `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int  `query:"offset" validate:"omitempty,min=0"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	UserID    uint                   `json:"user_id"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListResponse wraps a page of notifications with the unread total.
type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int64                  `json:"unread"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Data:      metadataFromJSON(model.Data),
		Read:      model.Read,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// DiscussionThreadCreateRequest opens a thread in a course.
type DiscussionThreadCreateRequest struct {
	Title      string `json:"title" validate:"required,min=3,max=255"`
	Body       string `json:"body" validate:"required,min=1,max=20000"`
	MaterialID *uint  `json:"material_id"`
}

// DiscussionReplyCreateRequest posts a reply, optionally nested under another reply.
type DiscussionReplyCreateRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=10000"`
	ParentID *uint  `json:"parent_id"`
}

// DiscussionReplyResponse is a reply with its nested children.
type DiscussionReplyResponse struct {
	ID         uint                      `json:"id"`
	ThreadID   uint                      `json:"thread_id"`
	ParentID   *uint                     `json:"parent_id"`
	AuthorID   uint                      `json:"author_id"`
	AuthorName string                    `json:"author_name"`
	Content    string                    `json:"content"`
	CreatedAt  time.Time                 `json:"created_at"`
	Children   []DiscussionReplyResponse `json:"children"`
}

// DiscussionThreadResponse is the serialized thread.
type DiscussionThreadResponse struct {
	ID         uint                      `json:"id"`
	CourseID   uint                      `json:"course_id"`
	MaterialID *uint                     `json:"material_id"`
	Title      string                    `json:"title"`
	Body       string                    `json:"body"`
	AuthorID   uint                      `json:"author_id"`
	AuthorName string                    `json:"author_name"`
	ReplyCount int                       `json:"reply_count"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
	Replies    []DiscussionReplyResponse `json:"replies,omitempty"`
}

// NewDiscussionReplyResponse converts a reply without children.
func NewDiscussionReplyResponse(model models.DiscussionReply) DiscussionReplyResponse {
	return DiscussionReplyResponse{
		ID:         model.ID,
		ThreadID:   model.ThreadID,
		ParentID:   model.ParentID,
		AuthorID:   model.AuthorID,
		AuthorName: model.Author.Name,
		Content:    model.Content,
		CreatedAt:  model.CreatedAt,
		Children:   []DiscussionReplyResponse{},
	}
}

// NewDiscussionThreadResponse converts a thread, nesting any loaded replies under their parents.
func NewDiscussionThreadResponse(model models.DiscussionThread) DiscussionThreadResponse {
	response := DiscussionThreadResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		MaterialID: model.MaterialID,
		Title:      model.Title,
		Body:       model.Body,
		AuthorID:   model.AuthorID,
		AuthorName: model.Author.Name,
		ReplyCount: model.ReplyCount,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
	if len(model.Replies) > 0 {
		response.Replies = BuildReplyTree(model.Replies)
	}
	return response
}

// NewDiscussionThreadResponseSlice converts threads for listing.
func NewDiscussionThreadResponseSlice(items []models.DiscussionThread) []DiscussionThreadResponse {
	out := make([]DiscussionThreadResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewDiscussionThreadResponse(item))
	}
	return out
}

// BuildReplyTree nests replies by parent id, keeping the input order among siblings.
// Replies whose parent is missing are promoted to the top level.
func BuildReplyTree(replies []models.DiscussionReply) []DiscussionReplyResponse {
	children := make(map[uint][]models.DiscussionReply)
	known := make(map[uint]struct{}, len(replies))
	for _, reply := range replies {
		known[reply.ID] = struct{}{}
	}

	roots := make([]models.DiscussionReply, 0)
	for _, reply := range replies {
		if reply.ParentID != nil {
			if _, ok := known[*reply.ParentID]; ok {
				children[*reply.ParentID] = append(children[*reply.ParentID], reply)
				continue
			}
		}
		roots = append(roots, reply)
	}

	var build func(items []models.DiscussionReply) []DiscussionReplyResponse
	build = func(items []models.DiscussionReply) []DiscussionReplyResponse {
		out := make([]DiscussionReplyResponse, 0, len(items))
		for _, item := range items {
			node := NewDiscussionReplyResponse(item)
			node.Children = build(children[item.ID])
			out = append(out, node)
		}
		return out
	}

	return build(roots)
}
