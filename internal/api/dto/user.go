package dto

// UserSimpleDTO 通知渲染所需的用户快照，缓存在 Redis
type UserSimpleDTO struct {
	UserID    uint64 `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}
