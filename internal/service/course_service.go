package service

import (
	"context"
	"errors"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// CourseService manages the course catalogue, enrollment and material authoring.
type CourseService interface {
	Create(ctx context.Context, mentorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	List(ctx context.Context, viewerID uint, req dto.CourseListRequest) (dto.CourseListResponse, error)
	Get(ctx context.Context, viewerID, courseID uint) (dto.CourseResponse, error)
	Enroll(ctx context.Context, userID, courseID uint) (dto.EnrollmentResponse, error)
	AddMaterial(ctx context.Context, actorID, courseID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	materials repository.MaterialRepository
	users     repository.UserRepository
	access    CourseAccess
	files     FileStore
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, materials repository.MaterialRepository, users repository.UserRepository, access CourseAccess, files FileStore, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		materials: materials,
		users:     users,
		access:    access,
		files:     files,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
		now:       time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, mentorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrUserNotFound
		}
		return dto.CourseResponse{}, err
	}
	if !mentor.IsMentor() {
		return dto.CourseResponse{}, ErrMentorRequired
	}

	course := models.Course{
		Title:       strings.TrimSpace(payload.Title),
		Slug:        slugify(payload.Title),
		Category:    strings.TrimSpace(payload.Category),
		Description: payload.Description,
		MentorID:    mentor.ID,
		IsPublished: payload.IsPublished,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	course.Mentor = mentor

	s.logger.Info().Uint("course_id", course.ID).Uint("mentor_id", mentor.ID).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, viewerID uint, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseListResponse{}, err
	}

	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.CourseFilter{
		Search:        strings.TrimSpace(req.Search),
		Category:      strings.TrimSpace(req.Category),
		PublishedOnly: true,
		Page:          page,
		PageSize:      pageSize,
	}
	if req.Mine {
		filter.MentorID = &viewerID
		filter.PublishedOnly = false
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.NewCourseResponse(course))
	}

	return dto.CourseListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *courseService) Get(ctx context.Context, viewerID, courseID uint) (dto.CourseResponse, error) {
	course, err := s.load(ctx, viewerID, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Enroll(ctx context.Context, userID, courseID uint) (dto.EnrollmentResponse, error) {
	course, err := s.load(ctx, userID, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if course.IsOwnedBy(userID) {
		return dto.EnrollmentResponse{}, ErrOwnerNotTracked
	}

	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: s.now(),
	}
	created, err := s.courses.Enroll(ctx, &enrollment)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if created {
		s.logger.Info().Uint("course_id", courseID).Uint("user_id", userID).Msg("user enrolled")
	}

	return dto.EnrollmentResponse{
		CourseID:   courseID,
		UserID:     userID,
		EnrolledAt: enrollment.EnrolledAt,
		Created:    created,
	}, nil
}

func (s *courseService) AddMaterial(ctx context.Context, actorID, courseID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}
	if file == nil && strings.TrimSpace(payload.ContentURL) == "" {
		return dto.MaterialResponse{}, newValidationError("content_url", "a file or content url is required")
	}

	if _, err := s.access.RequireOwner(ctx, actorID, courseID); err != nil {
		return dto.MaterialResponse{}, err
	}

	material := models.Material{
		CourseID:    courseID,
		Chapter:     strings.TrimSpace(payload.Chapter),
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		Type:        payload.Type,
		ContentURL:  strings.TrimSpace(payload.ContentURL),
	}

	if payload.Order != nil {
		material.Order = *payload.Order
	} else {
		next, err := s.materials.NextOrder(ctx, courseID)
		if err != nil {
			return dto.MaterialResponse{}, err
		}
		material.Order = next
	}

	if file != nil {
		descriptor, err := s.files.StoreFile(ctx, file, PurposeMaterial, actorID)
		if err != nil {
			return dto.MaterialResponse{}, err
		}
		material.FileID = descriptor.ID
		material.ContentURL = descriptor.URL
	}

	if err := s.materials.Create(ctx, &material); err != nil {
		if material.FileID != "" {
			if removeErr := s.files.Remove(ctx, material.FileID); removeErr != nil {
				s.logger.Warn().Err(removeErr).Str("file_id", material.FileID).Msg("failed to remove stored file")
			}
		}
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Uint("course_id", courseID).Int("order", material.Order).Msg("material added")

	return dto.NewMaterialResponse(material), nil
}

// load returns the course, hiding unpublished courses from everyone but their mentor.
func (s *courseService) load(ctx context.Context, viewerID, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	if !course.IsPublished && !course.IsOwnedBy(viewerID) {
		return models.Course{}, ErrCourseNotFound
	}
	return course, nil
}

func slugify(title string) string {
	base := strings.Trim(slugInvalidChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > 120 {
		base = strings.TrimRight(base[:120], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func maxInt(value, fallback int) int {
	if value > fallback {
		return value
	}
	return fallback
}
