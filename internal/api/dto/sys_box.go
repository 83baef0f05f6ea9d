package dto

// SysBoxDTO 站内通知返回对象
type SysBoxDTO struct {
	ID         string         `json:"id"`
	SenderID   uint64         `json:"sender_id"`
	SenderName string         `json:"sender_name"`
	AvatarURL  string         `json:"avatar_url"`
	Type       string         `json:"type"`
	TargetID   uint64         `json:"target_id"`  // 关联的帖子ID
	CommentID  uint64         `json:"comment_id"` // 关联的评论ID
	Content    string         `json:"content"`
	Payload    map[string]any `json:"payload"`
	IsRead     bool           `json:"is_read"`
	CreatedAt  string         `json:"created_at"`
}

// SysBoxUnreadDTO 未读数返回
type SysBoxUnreadDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// SysBoxReadReq 标记单条已读
type SysBoxReadReq struct {
	MsgID string `json:"msgId" binding:"required"`
}

type SysBoxReadAllDTO struct {
	Modified int64 `json:"modified"`
}
