package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	ListByCourse(ctx context.Context, viewerID, courseID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, viewerID, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actorID, courseID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actorID, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	access    CourseAccess
	files     FileStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, access CourseAccess, files FileStore, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		access:    access,
		files:     files,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, viewerID, courseID uint) ([]dto.AssignmentResponse, error) {
	membership, err := s.access.RequireMember(ctx, viewerID, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filter := repository.AssignmentFilter{CourseID: courseID}
	if !membership.Owner {
		filter.AvailableAt = &now
	}

	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments, now), nil
}

func (s *assignmentService) Get(ctx context.Context, viewerID, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	membership, err := s.access.RequireMember(ctx, viewerID, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	now := s.now()
	if !membership.Owner && !assignment.IsAvailable(now) {
		return dto.AssignmentResponse{}, &AssignmentUnavailableError{Reason: unavailableReason(assignment, now)}
	}

	return dto.NewAssignmentResponse(assignment, now), nil
}

func (s *assignmentService) Create(ctx context.Context, actorID, courseID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	publishDate, err := dto.ParsePublishDate(payload.PublishDate)
	if err != nil {
		return dto.AssignmentResponse{}, newValidationError("publish_date", "must be an RFC3339 timestamp")
	}

	if _, err := s.access.RequireOwner(ctx, actorID, courseID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID:     courseID,
		Title:        payload.Title,
		Description:  payload.Description,
		Instructions: payload.Instructions,
		MaxPoints:    payload.MaxPoints,
		MaxAttempts:  payload.MaxAttempts,
		IsPublished:  payload.IsPublished,
		PublishDate:  publishDate,
		OrderIndex:   payload.OrderIndex,
		CreatedBy:    actorID,
	}
	if assignment.MaxPoints <= 0 {
		assignment.MaxPoints = 100
	}
	if assignment.MaxAttempts <= 0 {
		assignment.MaxAttempts = 1
	}

	if file != nil {
		descriptor, err := s.files.StoreFile(ctx, file, PurposeQuestion, actorID)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.QuestionFile = descriptor
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		s.discardFile(ctx, assignment.QuestionFile)
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", courseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Update(ctx context.Context, actorID, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	var publishDate *time.Time
	if payload.PublishDate != nil {
		parsed, err := dto.ParsePublishDate(*payload.PublishDate)
		if err != nil {
			return dto.AssignmentResponse{}, newValidationError("publish_date", "must be an RFC3339 timestamp")
		}
		publishDate = parsed
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.access.RequireOwner(ctx, actorID, assignment.CourseID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Instructions != nil {
		assignment.Instructions = *payload.Instructions
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if payload.MaxAttempts != nil {
		assignment.MaxAttempts = *payload.MaxAttempts
	}
	if payload.IsPublished != nil {
		assignment.IsPublished = *payload.IsPublished
	}
	if payload.OrderIndex != nil {
		assignment.OrderIndex = *payload.OrderIndex
	}
	if payload.ClearPublishDate {
		assignment.PublishDate = nil
	} else if publishDate != nil {
		assignment.PublishDate = publishDate
	}

	previous := assignment.QuestionFile
	if file != nil {
		descriptor, err := s.files.StoreFile(ctx, file, PurposeQuestion, actorID)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.QuestionFile = descriptor
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		if file != nil {
			s.discardFile(ctx, assignment.QuestionFile)
		}
		return dto.AssignmentResponse{}, err
	}

	if file != nil {
		s.discardFile(ctx, previous)
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.access.RequireOwner(ctx, actor.ID, assignment.CourseID); err != nil {
		return err
	}

	count, err := s.repo.CountSubmissions(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &AssignmentInUseError{Submissions: count}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	// the row is gone; a dangling object in storage is only logged
	s.discardFile(ctx, assignment.QuestionFile)

	entityID := assignment.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.ActivityAssignmentDeleted,
		EntityType: "assignment",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_id": assignment.CourseID,
			"title":     assignment.Title,
		},
	})

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) load(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *assignmentService) discardFile(ctx context.Context, file models.FileDescriptor) {
	if file.IsZero() || file.ID == "" {
		return
	}
	if err := s.files.Remove(ctx, file.ID); err != nil {
		s.logger.Warn().Err(err).Str("file_id", file.ID).Msg("failed to remove stored file")
	}
}

func unavailableReason(assignment models.Assignment, reference time.Time) string {
	if !assignment.IsPublished {
		return "not published"
	}
	if assignment.PublishDate != nil && assignment.PublishDate.After(reference) {
		return "opens at " + assignment.PublishDate.UTC().Format(time.RFC3339)
	}
	return "unavailable"
}
