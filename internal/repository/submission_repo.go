package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// ErrVersionConflict signals that a submission changed since it was read.
var ErrVersionConflict = errors.New("submission version conflict")

// SubmissionFilter narrows the grading queue of a course.
type SubmissionFilter struct {
	CourseID     uint
	AssignmentID *uint
	Status       *models.SubmissionStatus
}

// SubmissionRepository defines data operations for assignment submissions.
type SubmissionRepository interface {
	ListForGrading(ctx context.Context, filter SubmissionFilter) ([]models.AssignmentSubmission, error)
	GetByID(ctx context.Context, id uint) (models.AssignmentSubmission, error)
	GetLatest(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error)
	CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error)
	Create(ctx context.Context, submission *models.AssignmentSubmission) error
	Update(ctx context.Context, submission *models.AssignmentSubmission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AssignmentSubmission{}).
		Preload("Assignment").
		Preload("Student")
}

// ListForGrading returns non-draft submissions oldest first.
func (r *submissionRepository) ListForGrading(ctx context.Context, filter SubmissionFilter) ([]models.AssignmentSubmission, error) {
	query := r.baseQuery(ctx).Where("course_id = ?", filter.CourseID)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else {
		query = query.Where("status <> ?", models.SubmissionStatusDraft)
	}

	var submissions []models.AssignmentSubmission
	if err := query.Order("submitted_at ASC, id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

// GetLatest returns the student's highest attempt for the assignment.
func (r *submissionRepository) GetLatest(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Order("attempt_number DESC").
		First(&submission).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AssignmentSubmission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.AssignmentSubmission) error {
	if submission.Version == 0 {
		submission.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(submission).Error
}

// Update writes every column guarded by the version the caller read, bumping it on success.
func (r *submissionRepository) Update(ctx context.Context, submission *models.AssignmentSubmission) error {
	expected := submission.Version
	submission.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(submission).
		Omit(clause.Associations).
		Where("version = ?", expected).
		Select("*").
		Updates(submission)
	if result.Error != nil {
		submission.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		submission.Version = expected
		return ErrVersionConflict
	}

	return nil
}
