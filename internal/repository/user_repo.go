package repository

import (
	"Herald/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserSimpleInfoById(ctx context.Context, id uint64) (*model.UserDetail, error)
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error)
	GetUserIDsByNicknames(ctx context.Context, nicknames []string) ([]*model.UserDetail, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// activeDetails 只查询未注销账号的资料
func (s *UserRepoImpl) activeDetails(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&model.UserDetail{}).
		Joins("JOIN users ON users.id = user_detail.user_id").
		Where("users.is_delete = ?", false)
}

func (s *UserRepoImpl) GetUserSimpleInfoById(ctx context.Context, id uint64) (*model.UserDetail, error) {
	detail := &model.UserDetail{}
	result := s.activeDetails(ctx).
		Select("user_detail.user_id", "user_detail.nickname", "user_detail.avatar_url").
		Where("user_detail.user_id = ?", id).
		First(detail)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return detail, nil
}

func (s *UserRepoImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error) {
	users := make([]*model.UserDetail, 0)
	if len(ids) == 0 {
		return users, nil
	}
	result := s.activeDetails(ctx).
		Select("user_detail.user_id", "user_detail.nickname", "user_detail.avatar_url").
		Where("user_detail.user_id IN ?", ids).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// GetUserIDsByNicknames 按昵称匹配，比较规则取决于列的排序规则（默认不区分大小写）
// 结果按 user_id 升序
func (s *UserRepoImpl) GetUserIDsByNicknames(ctx context.Context, nicknames []string) ([]*model.UserDetail, error) {
	users := make([]*model.UserDetail, 0)
	if len(nicknames) == 0 {
		return users, nil
	}
	result := s.activeDetails(ctx).
		Select("user_detail.user_id", "user_detail.nickname").
		Where("user_detail.nickname IN ?", nicknames).
		Order("user_detail.user_id").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}
