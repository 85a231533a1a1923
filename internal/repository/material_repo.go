package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// MaterialRepository exposes the ordered material catalog of a course.
type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, id uint) (models.Material, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Material, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
	NextOrder(ctx context.Context, courseID uint) (int, error)
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository constructs the material repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.Material{}, err
	}

	return material, nil
}

// ListByCourse returns materials ascending by (order, id), ignoring chapters.
func (r *materialRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Material, error) {
	var materials []models.Material
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC, id ASC").
		Find(&materials).Error; err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Material{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *materialRepository) NextOrder(ctx context.Context, courseID uint) (int, error) {
	var maxOrder int
	if err := r.db.WithContext(ctx).Model(&models.Material{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}

	return maxOrder + 1, nil
}
