package model

type UserDetail struct {
	UserID    uint64 `gorm:"primaryKey" json:"user_id"`
	Nickname  string `gorm:"type:varchar(50);not null;index:idx_nickname" json:"nickname"`
	AvatarURL string `gorm:"type:varchar(512);column:avatar_url;default:'default_avatar.png'" json:"avatar_url"`
}

func (UserDetail) TableName() string {
	return "user_detail"
}
