package repository

import (
	"Herald/internal/model"
	"context"

	"gorm.io/gorm"
)

type PostRepo interface {
	GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error)
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

// GetPostByIds 已删除的帖子不返回
func (s PostRepoImpl) GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "title", "status", "is_deleted", "created_at").
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}
