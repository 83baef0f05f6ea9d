package kafka

import (
	"Herald/internal/repository"
	"context"
)

// NewCollectionsHandler 收藏通知帖子作者
func NewCollectionsHandler(postRepo repository.PostRepo, notifier Notifier) *CanalHandler {
	return NewCanalHandler("post-collection", "collections", func(ctx context.Context, row map[string]any) error {
		userID, postID := StrToUint64(row["user_id"]), StrToUint64(row["post_id"])

		authorID, err := postAuthor(ctx, postRepo, postID)
		if err != nil {
			return err
		}
		notifier.NotifyFavorite(ctx, authorID, userID, postID)
		return nil
	})
}
