package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/observability"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

// CourseCompletion is the aggregate completion of one learner in one course.
type CourseCompletion struct {
	Percentage     int
	CompletedCount int
	TotalCount     int
	NoMaterials    bool
}

// ProgressService tracks material completion and derives course progress and unlock state.
type ProgressService interface {
	GetOrCreate(ctx context.Context, userID, materialID, courseID uint) (models.MaterialProgress, error)
	MarkCompleted(ctx context.Context, record models.MaterialProgress) (models.MaterialProgress, error)
	MarkIncomplete(ctx context.Context, record models.MaterialProgress) (models.MaterialProgress, error)
	ComputeCourseCompletion(ctx context.Context, userID, courseID uint) (CourseCompletion, error)

	ListMaterials(ctx context.Context, userID, courseID uint) (dto.MaterialCatalogResponse, error)
	OpenMaterial(ctx context.Context, userID, materialID uint) (dto.MaterialOpenResponse, error)
	SetCompletion(ctx context.Context, userID, materialID uint, payload dto.ProgressToggleRequest) (dto.ProgressResponse, error)
	Rate(ctx context.Context, userID, materialID uint, payload dto.MaterialRatingRequest) (dto.ProgressResponse, error)
	CourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error)
}

type progressService struct {
	progress  repository.ProgressRepository
	materials repository.MaterialRepository
	access    CourseAccess
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(progress repository.ProgressRepository, materials repository.MaterialRepository, access CourseAccess, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		progress:  progress,
		materials: materials,
		access:    access,
		validator: validate,
		logger:    logger.With().Str("component", "progress_service").Logger(),
		now:       time.Now,
	}
}

// IsUnlocked reports whether a learner may open material. ordered must be sorted
// ascending by (order, id) across the whole course. The first material is always
// open; any other needs a completed record for its immediate predecessor.
func IsUnlocked(material models.Material, ordered []models.Material, progress map[uint]models.MaterialProgress) bool {
	for i, candidate := range ordered {
		if candidate.ID != material.ID {
			continue
		}
		if i == 0 {
			return true
		}
		previous, ok := progress[ordered[i-1].ID]
		return ok && previous.IsCompleted
	}
	return false
}

// CompletionPercentage is round(completed / total * 100); an empty course reports 0.
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (s *progressService) GetOrCreate(ctx context.Context, userID, materialID, courseID uint) (models.MaterialProgress, error) {
	return s.progress.GetOrCreate(ctx, userID, materialID, courseID)
}

func (s *progressService) MarkCompleted(ctx context.Context, record models.MaterialProgress) (models.MaterialProgress, error) {
	updated, err := s.progress.MarkCompleted(ctx, record.ID, s.now())
	if err != nil {
		return models.MaterialProgress{}, err
	}
	if !record.IsCompleted {
		observability.MaterialsCompleted().Inc()
	}
	return updated, nil
}

func (s *progressService) MarkIncomplete(ctx context.Context, record models.MaterialProgress) (models.MaterialProgress, error) {
	return s.progress.MarkIncomplete(ctx, record.ID, s.now())
}

func (s *progressService) ComputeCourseCompletion(ctx context.Context, userID, courseID uint) (CourseCompletion, error) {
	total, err := s.materials.CountByCourse(ctx, courseID)
	if err != nil {
		return CourseCompletion{}, err
	}
	if total == 0 {
		return CourseCompletion{NoMaterials: true}, nil
	}

	completed, err := s.progress.CountCompletedInCourse(ctx, userID, courseID)
	if err != nil {
		return CourseCompletion{}, err
	}

	return CourseCompletion{
		Percentage:     CompletionPercentage(int(completed), int(total)),
		CompletedCount: int(completed),
		TotalCount:     int(total),
	}, nil
}

func (s *progressService) ListMaterials(ctx context.Context, userID, courseID uint) (dto.MaterialCatalogResponse, error) {
	membership, err := s.access.RequireMember(ctx, userID, courseID)
	if err != nil {
		return dto.MaterialCatalogResponse{}, err
	}

	ordered, progress, err := s.loadCourseState(ctx, userID, courseID, membership.Owner)
	if err != nil {
		return dto.MaterialCatalogResponse{}, err
	}

	items := make([]dto.MaterialStatusResponse, 0, len(ordered))
	for _, material := range ordered {
		record, tracked := progress[material.ID]
		items = append(items, dto.MaterialStatusResponse{
			MaterialResponse: dto.NewMaterialResponse(material),
			IsUnlocked:       membership.Owner || IsUnlocked(material, ordered, progress),
			IsCompleted:      tracked && record.IsCompleted,
		})
	}

	return dto.MaterialCatalogResponse{
		CourseID:  courseID,
		IsOwner:   membership.Owner,
		Materials: items,
		Chapters:  dto.GroupByChapter(items),
	}, nil
}

func (s *progressService) OpenMaterial(ctx context.Context, userID, materialID uint) (dto.MaterialOpenResponse, error) {
	material, membership, err := s.resolveMaterial(ctx, userID, materialID)
	if err != nil {
		return dto.MaterialOpenResponse{}, err
	}

	response := dto.MaterialOpenResponse{
		Material:   dto.NewMaterialResponse(material),
		IsUnlocked: true,
	}
	if membership.Owner {
		return response, nil
	}

	if err := s.ensureUnlocked(ctx, userID, material); err != nil {
		return dto.MaterialOpenResponse{}, err
	}

	record, err := s.progress.GetOrCreate(ctx, userID, material.ID, material.CourseID)
	if err != nil {
		return dto.MaterialOpenResponse{}, err
	}

	progress := dto.NewProgressResponse(record)
	response.Progress = &progress
	return response, nil
}

func (s *progressService) SetCompletion(ctx context.Context, userID, materialID uint, payload dto.ProgressToggleRequest) (dto.ProgressResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProgressResponse{}, err
	}

	material, membership, err := s.resolveMaterial(ctx, userID, materialID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	if membership.Owner {
		return dto.ProgressResponse{}, ErrOwnerNotTracked
	}

	completed := *payload.Completed
	if completed {
		if err := s.ensureUnlocked(ctx, userID, material); err != nil {
			return dto.ProgressResponse{}, err
		}
	}

	record, err := s.progress.GetOrCreate(ctx, userID, material.ID, material.CourseID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	if completed {
		record, err = s.MarkCompleted(ctx, record)
	} else {
		record, err = s.MarkIncomplete(ctx, record)
	}
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	s.logger.Info().
		Uint("user_id", userID).
		Uint("material_id", material.ID).
		Bool("completed", record.IsCompleted).
		Msg("material progress updated")

	return dto.NewProgressResponse(record), nil
}

func (s *progressService) Rate(ctx context.Context, userID, materialID uint, payload dto.MaterialRatingRequest) (dto.ProgressResponse, error) {
	if payload.Rating < 1 || payload.Rating > 5 {
		return dto.ProgressResponse{}, newValidationError("rating", "must be between 1 and 5")
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProgressResponse{}, err
	}

	material, membership, err := s.resolveMaterial(ctx, userID, materialID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	if membership.Owner {
		return dto.ProgressResponse{}, ErrOwnerNotTracked
	}
	if err := s.ensureUnlocked(ctx, userID, material); err != nil {
		return dto.ProgressResponse{}, err
	}

	record, err := s.progress.GetOrCreate(ctx, userID, material.ID, material.CourseID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	record, err = s.progress.Rate(ctx, record.ID, payload.Rating, payload.Feedback, s.now())
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	return dto.NewProgressResponse(record), nil
}

func (s *progressService) CourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error) {
	membership, err := s.access.RequireMember(ctx, userID, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	ordered, progress, err := s.loadCourseState(ctx, userID, courseID, membership.Owner)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	completion, err := s.ComputeCourseCompletion(ctx, userID, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	items := make([]dto.MaterialProgressItem, 0, len(ordered))
	for _, material := range ordered {
		item := dto.MaterialProgressItem{
			MaterialID: material.ID,
			Title:      material.Title,
			Chapter:    material.Chapter,
			Order:      material.Order,
			IsUnlocked: membership.Owner || IsUnlocked(material, ordered, progress),
		}
		if record, ok := progress[material.ID]; ok {
			item.IsCompleted = record.IsCompleted
			item.MarkedCompletedAt = record.MarkedCompletedAt
			item.Rating = record.Rating
		}
		items = append(items, item)
	}

	return dto.CourseProgressResponse{
		Overview: dto.ProgressOverview{
			Total:       completion.TotalCount,
			Completed:   completion.CompletedCount,
			Percentage:  completion.Percentage,
			NoMaterials: completion.NoMaterials,
		},
		MaterialProgress: items,
	}, nil
}

// resolveMaterial returns 404 for unknown materials and 403 for ones the user cannot reach.
func (s *progressService) resolveMaterial(ctx context.Context, userID, materialID uint) (models.Material, Membership, error) {
	material, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Material{}, Membership{}, ErrMaterialNotFound
		}
		return models.Material{}, Membership{}, err
	}

	membership, err := s.access.RequireMember(ctx, userID, material.CourseID)
	if err != nil {
		return models.Material{}, Membership{}, err
	}

	return material, membership, nil
}

func (s *progressService) ensureUnlocked(ctx context.Context, userID uint, material models.Material) error {
	ordered, progress, err := s.loadCourseState(ctx, userID, material.CourseID, false)
	if err != nil {
		return err
	}
	if !IsUnlocked(material, ordered, progress) {
		return ErrMaterialLocked
	}
	return nil
}

func (s *progressService) loadCourseState(ctx context.Context, userID, courseID uint, owner bool) ([]models.Material, map[uint]models.MaterialProgress, error) {
	ordered, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	progress := make(map[uint]models.MaterialProgress)
	if owner {
		return ordered, progress, nil
	}

	records, err := s.progress.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	for _, record := range records {
		progress[record.MaterialID] = record
	}

	return ordered, progress, nil
}
