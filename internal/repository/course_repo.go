package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search        string
	Category      string
	MentorID      *uint
	PublishedOnly bool
	Page          int
	PageSize      int
}

// CourseRepository persists courses and enrollments.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	Enroll(ctx context.Context, enrollment *models.Enrollment) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Mentor").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MentorID != nil {
		query = query.Where("mentor_id = ?", *filter.MentorID)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	return countAndFind[models.Course](query, "created_at DESC, id DESC", paginate(filter.Page, filter.PageSize), preloadMentor)
}

func (r *courseRepository) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// Enroll inserts the enrollment unless one already exists and reports whether a row was created.
func (r *courseRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(enrollment)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func preloadMentor(db *gorm.DB) *gorm.DB {
	return db.Preload("Mentor")
}
