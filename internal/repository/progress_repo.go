package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// ProgressRepository persists per-user material progress.
type ProgressRepository interface {
	GetOrCreate(ctx context.Context, userID, materialID, courseID uint) (models.MaterialProgress, error)
	GetByUserAndMaterial(ctx context.Context, userID, materialID uint) (models.MaterialProgress, error)
	ListByUserAndCourse(ctx context.Context, userID, courseID uint) ([]models.MaterialProgress, error)
	MarkCompleted(ctx context.Context, id uint, at time.Time) (models.MaterialProgress, error)
	MarkIncomplete(ctx context.Context, id uint, at time.Time) (models.MaterialProgress, error)
	Rate(ctx context.Context, id uint, rating int, feedback string, at time.Time) (models.MaterialProgress, error)
	CountCompletedInCourse(ctx context.Context, userID, courseID uint) (int64, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a GORM-backed progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// GetOrCreate inserts a fresh record unless one exists, then fetches the stored row.
// Concurrent first calls collapse on the (user_id, material_id) unique index.
func (r *progressRepository) GetOrCreate(ctx context.Context, userID, materialID, courseID uint) (models.MaterialProgress, error) {
	record := models.MaterialProgress{
		UserID:     userID,
		MaterialID: materialID,
		CourseID:   courseID,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "material_id"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		return models.MaterialProgress{}, err
	}

	return r.GetByUserAndMaterial(ctx, userID, materialID)
}

func (r *progressRepository) GetByUserAndMaterial(ctx context.Context, userID, materialID uint) (models.MaterialProgress, error) {
	var record models.MaterialProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		First(&record).Error; err != nil {
		return models.MaterialProgress{}, err
	}

	return record, nil
}

func (r *progressRepository) ListByUserAndCourse(ctx context.Context, userID, courseID uint) ([]models.MaterialProgress, error) {
	var records []models.MaterialProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("material_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// MarkCompleted keeps the first completion timestamp on repeated calls.
func (r *progressRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) (models.MaterialProgress, error) {
	return r.update(ctx, id, map[string]interface{}{
		"is_completed":        true,
		"marked_completed_at": gorm.Expr("COALESCE(marked_completed_at, ?)", at),
		"updated_at":          at,
	})
}

func (r *progressRepository) MarkIncomplete(ctx context.Context, id uint, at time.Time) (models.MaterialProgress, error) {
	return r.update(ctx, id, map[string]interface{}{
		"is_completed":        false,
		"marked_completed_at": nil,
		"updated_at":          at,
	})
}

func (r *progressRepository) Rate(ctx context.Context, id uint, rating int, feedback string, at time.Time) (models.MaterialProgress, error) {
	return r.update(ctx, id, map[string]interface{}{
		"rating":     rating,
		"feedback":   feedback,
		"updated_at": at,
	})
}

func (r *progressRepository) update(ctx context.Context, id uint, values map[string]interface{}) (models.MaterialProgress, error) {
	result := r.db.WithContext(ctx).Model(&models.MaterialProgress{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return models.MaterialProgress{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.MaterialProgress{}, gorm.ErrRecordNotFound
	}

	var record models.MaterialProgress
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.MaterialProgress{}, err
	}

	return record, nil
}

// CountCompletedInCourse counts completed records whose material still belongs to the course.
func (r *progressRepository) CountCompletedInCourse(ctx context.Context, userID, courseID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MaterialProgress{}).
		Joins("JOIN materials ON materials.id = material_progress.material_id").
		Where("material_progress.user_id = ? AND materials.course_id = ? AND material_progress.is_completed = ?", userID, courseID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
