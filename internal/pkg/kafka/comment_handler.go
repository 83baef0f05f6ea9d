package kafka

import (
	"Herald/internal/repository"
	"context"
	log "log/slog"
)

// NewCommentsHandler 新评论总是通知帖子作者，被回复者不是作者时另发一条；内容中的 @ 单独通知
func NewCommentsHandler(postRepo repository.PostRepo, notifier Notifier) *CanalHandler {
	return NewCanalHandler("post-comment", "post_comments", func(ctx context.Context, row map[string]any) error {
		if StrToBool(row["is_deleted"]) {
			return nil
		}

		commentID := StrToUint64(row["id"])
		postID := StrToUint64(row["post_id"])
		userID := StrToUint64(row["user_id"])
		content := StrToString(row["content"])

		replyToID := StrToUint64(row["reply_to_user_id"])

		authorID, err := postAuthor(ctx, postRepo, postID)
		if err != nil {
			return err
		}

		notifier.NotifyComment(ctx, authorID, userID, postID, commentID, content)
		if replyToID != 0 && replyToID != authorID {
			notifier.NotifyComment(ctx, replyToID, userID, postID, commentID, content)
		}
		notifier.NotifyMentions(ctx, userID, postID, commentID, content)

		log.InfoContext(ctx, "comment notification handled", "commentID", commentID, "postID", postID)
		return nil
	})
}
