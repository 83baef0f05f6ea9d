package kafka

import (
	"context"
)

// NewUserFollowsHandler 被关注者收到通知
func NewUserFollowsHandler(notifier Notifier) *CanalHandler {
	return NewCanalHandler("user-follow", "user_follows", func(ctx context.Context, row map[string]any) error {
		followerID := StrToUint64(row["follower_id"])
		followingID := StrToUint64(row["following_id"])
		notifier.NotifyFollow(ctx, followingID, followerID)
		return nil
	})
}
