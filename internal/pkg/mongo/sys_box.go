package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SysBoxModel 站内通知
type SysBoxModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID uint64             `bson:"receiver_id" json:"receiverId"` // 通知接收者ID
	SenderID   uint64             `bson:"sender_id" json:"senderId"`     // 动作发起者ID，系统通知为0
	Type       string             `bson:"type" json:"type"`              // LIKE / COMMENT / FOLLOW / FAVORITE / MENTION / SYSTEM
	TargetID   uint64             `bson:"target_id" json:"targetId"`     // 关联帖子ID，无则为0
	CommentID  uint64             `bson:"comment_id" json:"commentId"`   // 关联评论ID，无则为0
	Content    string             `bson:"content" json:"content"`        // 渲染好的通知文案
	Payload    map[string]any     `bson:"payload" json:"payload"`        // 快照数据，如帖子标题
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
