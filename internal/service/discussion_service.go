package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

// DiscussionService exposes course discussion use-cases.
type DiscussionService interface {
	ListThreads(ctx context.Context, viewerID, courseID uint, limit, offset int) ([]dto.DiscussionThreadResponse, error)
	GetThread(ctx context.Context, viewerID, threadID uint) (dto.DiscussionThreadResponse, error)
	CreateThread(ctx context.Context, authorID, courseID uint, payload dto.DiscussionThreadCreateRequest) (dto.DiscussionThreadResponse, error)
	CreateReply(ctx context.Context, authorID, threadID uint, payload dto.DiscussionReplyCreateRequest) (dto.DiscussionReplyResponse, error)
}

type discussionService struct {
	repo           repository.DiscussionRepository
	materials      repository.MaterialRepository
	users          repository.UserRepository
	access         CourseAccess
	notifications  NotificationPublisher
	validator      *validator.Validate
	logger         zerolog.Logger
	tracer         trace.Tracer
	sanitizer      *bluemonday.Policy
	mentionPattern *regexp.Regexp
	now            func() time.Time
}

// NewDiscussionService constructs a discussion service.
func NewDiscussionService(repo repository.DiscussionRepository, materials repository.MaterialRepository, users repository.UserRepository, access CourseAccess, notifications NotificationPublisher, validate *validator.Validate, logger zerolog.Logger) DiscussionService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &discussionService{
		repo:           repo,
		materials:      materials,
		users:          users,
		access:         access,
		notifications:  notifications,
		validator:      validate,
		logger:         logger.With().Str("component", "discussion_service").Logger(),
		tracer:         otel.Tracer("github.com/noah-isme/ajarin-go-api/internal/service/discussion"),
		sanitizer:      policy,
		mentionPattern: regexp.MustCompile(`@(\d+)\b`),
		now:            time.Now,
	}
}

func (s *discussionService) ListThreads(ctx context.Context, viewerID, courseID uint, limit, offset int) ([]dto.DiscussionThreadResponse, error) {
	if _, err := s.access.RequireMember(ctx, viewerID, courseID); err != nil {
		return nil, err
	}

	threads, err := s.repo.ListThreads(ctx, courseID, clampPageSize(limit), maxInt(offset, 0))
	if err != nil {
		return nil, err
	}
	return dto.NewDiscussionThreadResponseSlice(threads), nil
}

func (s *discussionService) GetThread(ctx context.Context, viewerID, threadID uint) (dto.DiscussionThreadResponse, error) {
	thread, err := s.repo.GetThreadWithReplies(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiscussionThreadResponse{}, ErrThreadNotFound
		}
		return dto.DiscussionThreadResponse{}, err
	}

	if _, err := s.access.RequireMember(ctx, viewerID, thread.CourseID); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	return dto.NewDiscussionThreadResponse(thread), nil
}

func (s *discussionService) CreateThread(ctx context.Context, authorID, courseID uint, payload dto.DiscussionThreadCreateRequest) (dto.DiscussionThreadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.DiscussionThreadResponse{}, newValidationError("title", "empty after sanitization")
	}
	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.DiscussionThreadResponse{}, newValidationError("body", "empty after sanitization")
	}

	spanCtx, span := s.tracer.Start(ctx, "discussion.create", trace.WithAttributes(
		attribute.Int64("discussion.author_id", int64(authorID)),
		attribute.Int64("discussion.course_id", int64(courseID)),
	))
	defer span.End()

	membership, err := s.access.RequireMember(spanCtx, authorID, courseID)
	if err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	if payload.MaterialID != nil {
		material, err := s.materials.GetByID(spanCtx, *payload.MaterialID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiscussionThreadResponse{}, err
		}
		if err != nil || material.CourseID != courseID {
			return dto.DiscussionThreadResponse{}, newValidationError("material_id", "material does not belong to this course")
		}
	}

	role := models.RoleStudent
	if membership.Owner {
		role = models.RoleMentor
	}

	thread := models.DiscussionThread{
		CourseID:   courseID,
		MaterialID: payload.MaterialID,
		Title:      title,
		Body:       body,
		AuthorID:   authorID,
		Metadata:   datatypes.JSONMap{"created_by_role": role},
	}

	if err := s.repo.CreateThread(spanCtx, &thread); err != nil {
		span.RecordError(err)
		return dto.DiscussionThreadResponse{}, err
	}
	thread.Author = s.author(spanCtx, authorID)

	s.logger.Info().Uint("thread_id", thread.ID).Uint("author_id", authorID).Msg("discussion thread created")

	return dto.NewDiscussionThreadResponse(thread), nil
}

func (s *discussionService) CreateReply(ctx context.Context, authorID, threadID uint, payload dto.DiscussionReplyCreateRequest) (dto.DiscussionReplyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.DiscussionReplyResponse{}, newValidationError("content", "empty after sanitization")
	}

	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiscussionReplyResponse{}, ErrThreadNotFound
		}
		return dto.DiscussionReplyResponse{}, err
	}

	if _, err := s.access.RequireMember(ctx, authorID, thread.CourseID); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}

	if payload.ParentID != nil {
		parent, err := s.repo.GetReply(ctx, *payload.ParentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DiscussionReplyResponse{}, err
		}
		if err != nil || parent.ThreadID != thread.ID {
			return dto.DiscussionReplyResponse{}, newValidationError("parent_id", "reply does not belong to this thread")
		}
	}

	reply := models.DiscussionReply{
		ThreadID: thread.ID,
		ParentID: payload.ParentID,
		AuthorID: authorID,
		Content:  content,
	}

	if err := s.repo.CreateReply(ctx, &reply); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}
	reply.Author = s.author(ctx, authorID)

	s.dispatchNotifications(ctx, thread, reply)

	return dto.NewDiscussionReplyResponse(reply), nil
}

func (s *discussionService) author(ctx context.Context, id uint) models.User {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Uint("user_id", id).Msg("author lookup failed")
		return models.User{ID: id}
	}
	return user
}

// dispatchNotifications tells the thread author about the reply and every mentioned course member about the mention.
func (s *discussionService) dispatchNotifications(ctx context.Context, thread models.DiscussionThread, reply models.DiscussionReply) {
	if s.notifications == nil {
		return
	}

	targets := make(map[uint]string)
	for _, mention := range s.extractMentions(reply.Content) {
		if mention == reply.AuthorID {
			continue
		}
		membership, found, err := s.access.Membership(ctx, mention, thread.CourseID)
		if err != nil || !found || !membership.CanView() {
			continue
		}
		targets[mention] = models.NotificationDiscussionMention
	}
	if thread.AuthorID != reply.AuthorID {
		targets[thread.AuthorID] = models.NotificationDiscussionReply
	}

	for userID, kind := range targets {
		message := fmt.Sprintf("New reply in thread '%s'", thread.Title)
		if kind == models.NotificationDiscussionMention {
			message = fmt.Sprintf("You were mentioned in thread '%s'", thread.Title)
		}
		payload := dto.NotificationCreateRequest{
			UserID:  userID,
			Type:    kind,
			Message: message,
			Data: map[string]interface{}{
				"thread_id": thread.ID,
				"reply_id":  reply.ID,
				"course_id": thread.CourseID,
			},
		}
		if _, err := s.notifications.Publish(ctx, payload); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to publish discussion notification")
		}
	}
}

func (s *discussionService) extractMentions(content string) []uint {
	matches := s.mentionPattern.FindAllStringSubmatch(content, -1)
	mentions := make([]uint, 0, len(matches))
	seen := make(map[uint]struct{}, len(matches))
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		id, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil || id == 0 {
			continue
		}
		if _, ok := seen[uint(id)]; ok {
			continue
		}
		seen[uint(id)] = struct{}{}
		mentions = append(mentions, uint(id))
	}
	return mentions
}

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}
