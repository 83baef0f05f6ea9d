package model

import (
	"time"
)

// Post 帖子表，通知只关心作者与标题
type Post struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Status    int8      `gorm:"not null;default:0" json:"status"` // 0:审核中, 1:已发布, 2:拒绝, 3:待人工
	IsDeleted bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}
