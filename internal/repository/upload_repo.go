package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// UploadRepository keeps one record per stored object so repeat uploads can be deduplicated.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	FindByChecksum(ctx context.Context, userID uint, checksum string) (models.UploadRecord, error)
	DeleteByPublicID(ctx context.Context, publicID string) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByChecksum returns the newest record the user stored with the same content hash.
func (r *uploadRepository) FindByChecksum(ctx context.Context, userID uint, checksum string) (models.UploadRecord, error) {
	var record models.UploadRecord
	err := r.db.WithContext(ctx).
		Where(&models.UploadRecord{UserID: &userID, Checksum: checksum}).
		Order("id DESC").
		Take(&record).Error
	return record, err
}

// DeleteByPublicID forgets every record pointing at a removed object.
func (r *uploadRepository) DeleteByPublicID(ctx context.Context, publicID string) error {
	return r.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&models.UploadRecord{}).Error
}
