package service

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type SysBoxService interface {
	GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, msgID string) error
	MarkAllRead(ctx context.Context, userID uint64) (*dto.SysBoxReadAllDTO, error)
}

type sysBoxServiceImpl struct {
	sysBoxRepo mongo.SysBoxRepo
	profiles   UserProfileService
}

func NewSysBoxService(sysBox mongo.SysBoxRepo, profiles UserProfileService) SysBoxService {
	return &sysBoxServiceImpl{
		sysBoxRepo: sysBox,
		profiles:   profiles,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// GetNotificationList 获取通知列表并补全发送者信息
func (s *sysBoxServiceImpl) GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error) {
	page, pageSize = normalizePage(page, pageSize)
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.sysBoxRepo.GetNotificationList(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]uint64, 0, len(list))
	for _, m := range list {
		if m.SenderID > 0 {
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders := map[uint64]*dto.UserSimpleDTO{}
	if len(senderIDs) > 0 {
		senders, err = s.profiles.GetUserSimpleInfoByIds(ctx, senderIDs)
		if err != nil {
			// 发送者信息缺失不影响列表本身
			log.WarnContext(ctx, "failed to load notification senders", "userID", userID, "err", err)
			senders = map[uint64]*dto.UserSimpleDTO{}
		}
	}

	res := make([]*dto.SysBoxDTO, 0, len(list))
	for _, m := range list {
		d := &dto.SysBoxDTO{}
		_ = copier.Copy(d, m)
		d.ID = m.ID.Hex()
		d.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)

		// SenderID 为 0 代表系统发送
		switch sender := senders[m.SenderID]; {
		case m.SenderID == 0:
			d.SenderName = consts.SystemSenderName
		case sender != nil:
			d.SenderName = sender.Nickname
			d.AvatarURL = sender.AvatarURL
		default:
			d.SenderName = consts.UnknownSenderName
		}

		res = append(res, d)
	}

	return res, nil
}

// GetUnreadCount 获取未读数
func (s *sysBoxServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	count, err := s.sysBoxRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记单条已读，他人的通知与不存在的ID均静默忽略
func (s *sysBoxServiceImpl) MarkRead(ctx context.Context, userID uint64, msgID string) error {
	objectID, err := primitive.ObjectIDFromHex(msgID)
	if err != nil {
		return ErrParamInvalid
	}
	return s.sysBoxRepo.MarkAsRead(ctx, userID, objectID)
}

// MarkAllRead 一键已读
func (s *sysBoxServiceImpl) MarkAllRead(ctx context.Context, userID uint64) (*dto.SysBoxReadAllDTO, error) {
	modified, err := s.sysBoxRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxReadAllDTO{Modified: modified}, nil
}
