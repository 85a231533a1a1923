package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

// DiscussionRepository persists course discussion threads and replies.
type DiscussionRepository interface {
	ListThreads(ctx context.Context, courseID uint, limit, offset int) ([]models.DiscussionThread, error)
	GetThread(ctx context.Context, id uint) (models.DiscussionThread, error)
	GetThreadWithReplies(ctx context.Context, id uint) (models.DiscussionThread, error)
	CreateThread(ctx context.Context, thread *models.DiscussionThread) error
	GetReply(ctx context.Context, id uint) (models.DiscussionReply, error)
	CreateReply(ctx context.Context, reply *models.DiscussionReply) error
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository constructs a GORM-backed repository.
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) ListThreads(ctx context.Context, courseID uint, limit, offset int) ([]models.DiscussionThread, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var threads []models.DiscussionThread
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("course_id = ?", courseID).
		Order("updated_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error; err != nil {
		return nil, err
	}

	return threads, nil
}

func (r *discussionRepository) GetThread(ctx context.Context, id uint) (models.DiscussionThread, error) {
	var thread models.DiscussionThread
	if err := r.db.WithContext(ctx).Preload("Author").First(&thread, id).Error; err != nil {
		return models.DiscussionThread{}, err
	}
	return thread, nil
}

func (r *discussionRepository) GetThreadWithReplies(ctx context.Context, id uint) (models.DiscussionThread, error) {
	var thread models.DiscussionThread
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Replies.Author").
		First(&thread, id).Error; err != nil {
		return models.DiscussionThread{}, err
	}
	return thread, nil
}

func (r *discussionRepository) CreateThread(ctx context.Context, thread *models.DiscussionThread) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error
}

func (r *discussionRepository) GetReply(ctx context.Context, id uint) (models.DiscussionReply, error) {
	var reply models.DiscussionReply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return models.DiscussionReply{}, err
	}
	return reply, nil
}

// CreateReply stores the reply and bumps the thread's counters in one transaction.
func (r *discussionRepository) CreateReply(ctx context.Context, reply *models.DiscussionReply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(reply).Error; err != nil {
			return err
		}

		return tx.Model(&models.DiscussionThread{}).
			Where("id = ?", reply.ThreadID).
			UpdateColumns(map[string]interface{}{
				"updated_at":  reply.CreatedAt,
				"reply_count": gorm.Expr("reply_count + ?", 1),
			}).
			Error
	})
}
