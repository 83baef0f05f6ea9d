package kafka

import (
	"Herald/internal/repository"
	"context"
)

// NewLikesHandler likes 表新增即点赞，通知帖子作者
func NewLikesHandler(postRepo repository.PostRepo, notifier Notifier) *CanalHandler {
	return NewCanalHandler("post-like", "likes", func(ctx context.Context, row map[string]any) error {
		userID, postID := StrToUint64(row["user_id"]), StrToUint64(row["post_id"])

		authorID, err := postAuthor(ctx, postRepo, postID)
		if err != nil {
			return err
		}
		notifier.NotifyLike(ctx, authorID, userID, postID)
		return nil
	})
}
