package consts

const (
	DefaultAvatarURL = "default_avatar.png"
)

// 通知类型，同时作为推送消息的 type 字段
const (
	NotifyLike     = "LIKE"
	NotifyComment  = "COMMENT"
	NotifyFollow   = "FOLLOW"
	NotifyFavorite = "FAVORITE"
	NotifyMention  = "MENTION"
	NotifySystem   = "SYSTEM"
)

// 长连接控制消息
const (
	WsConnected = "CONNECTED"
	WsPing      = "ping"
	WsPong      = "pong"
)

// 自定义关闭码，4000-4999 为应用保留区间
const (
	WsCloseReplaced = 4000
	WsCloseEvicted  = 4001
)

const (
	SystemSenderName  = "系统通知"
	UnknownSenderName = "某位用户"
	UnknownPostTitle  = "一篇文章"
)
