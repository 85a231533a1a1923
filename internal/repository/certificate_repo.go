package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (models.Certificate, bool, error)
	GetByID(ctx context.Context, id uint) (models.Certificate, error)
	GetByPublicID(ctx context.Context, publicID string) (models.Certificate, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (models.Certificate, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Certificate, error)
	IncrementCounter(ctx context.Context, id uint, column string) error
	Update(ctx context.Context, certificate *models.Certificate) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs the certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// CreateIfAbsent inserts the certificate unless the (user, course) pair already holds one.
// It returns the stored row and whether this call created it.
func (r *certificateRepository) CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (models.Certificate, bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(certificate)
	if result.Error != nil {
		return models.Certificate{}, false, result.Error
	}

	stored, err := r.GetByUserAndCourse(ctx, certificate.UserID, certificate.CourseID)
	if err != nil {
		return models.Certificate{}, false, err
	}

	return stored, result.RowsAffected > 0, nil
}

func (r *certificateRepository) GetByID(ctx context.Context, id uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).First(&certificate, id).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByPublicID(ctx context.Context, publicID string) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) ListByUser(ctx context.Context, userID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certificates).Error; err != nil {
		return nil, err
	}
	return certificates, nil
}

// IncrementCounter atomically bumps view_count or download_count.
func (r *certificateRepository) IncrementCounter(ctx context.Context, id uint, column string) error {
	switch column {
	case "view_count", "download_count":
	default:
		return gorm.ErrInvalidField
	}

	result := r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *certificateRepository) Update(ctx context.Context, certificate *models.Certificate) error {
	return r.db.WithContext(ctx).Save(certificate).Error
}
