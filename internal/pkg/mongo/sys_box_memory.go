package mongo

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemorySysBoxRepo 进程内通知存储，用于本地开发
type MemorySysBoxRepo struct {
	mu   sync.RWMutex
	rows []*SysBoxModel
}

func NewMemorySysBoxRepo() *MemorySysBoxRepo {
	return &MemorySysBoxRepo{}
}

func (s *MemorySysBoxRepo) CreateNotification(_ context.Context, msg *SysBoxModel) error {
	prepareInsert(msg)
	row := *msg

	s.mu.Lock()
	s.rows = append(s.rows, &row)
	s.mu.Unlock()
	return nil
}

func (s *MemorySysBoxRepo) GetNotificationList(_ context.Context, userID uint64, limit, offset int64) ([]*SysBoxModel, error) {
	s.mu.RLock()
	matched := make([]*SysBoxModel, 0)
	for _, row := range s.rows {
		if row.ReceiverID == userID {
			cp := *row
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	// 与 Mongo 实现一致：created_at 倒序，_id 倒序兜底
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	if offset >= int64(len(matched)) {
		return []*SysBoxModel{}, nil
	}
	end := int64(len(matched))
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

func (s *MemorySysBoxRepo) GetUnreadCount(_ context.Context, userID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, row := range s.rows {
		if row.ReceiverID == userID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemorySysBoxRepo) MarkAsRead(_ context.Context, userID uint64, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ID == id && row.ReceiverID == userID {
			row.IsRead = true
			return nil
		}
	}
	return nil
}

func (s *MemorySysBoxRepo) MarkAllAsRead(_ context.Context, userID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, row := range s.rows {
		if row.ReceiverID == userID && !row.IsRead {
			row.IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (s *MemorySysBoxRepo) EnsureIndexes(context.Context) error {
	return nil
}
