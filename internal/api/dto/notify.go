package dto

// PushMessage 推送给在线用户的通知帧
type PushMessage struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ArticleID      uint64 `json:"articleId,omitempty"`
	CommentID      uint64 `json:"commentId,omitempty"`
	FromUserID     uint64 `json:"fromUserId,omitempty"`
	FromUserName   string `json:"fromUserName,omitempty"`
	FromUserAvatar string `json:"fromUserAvatar,omitempty"`
	Timestamp      int64  `json:"timestamp"` // 毫秒
}

// ConnectedAck 握手成功后的第一帧
type ConnectedAck struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	OnlineCount int    `json:"onlineCount"`
}

// BroadcastReq 系统广播
type BroadcastReq struct {
	Title   string `json:"title" binding:"required" validate:"min=1,max=50"`
	Content string `json:"content" binding:"required" validate:"min=1,max=500"`
}

type BroadcastDTO struct {
	Delivered int `json:"delivered"`
}

type OnlineCountDTO struct {
	OnlineCount int `json:"online_count"`
}

type OnlineStatusDTO struct {
	UserID uint64 `json:"user_id"`
	Online bool   `json:"online"`
}
