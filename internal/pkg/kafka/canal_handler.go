package kafka

import (
	"Herald/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// Notifier 消费者依赖的通知入口，由 service.NotifyService 实现
type Notifier interface {
	NotifyLike(ctx context.Context, recipientID, actorID, postID uint64)
	NotifyComment(ctx context.Context, recipientID, actorID, postID, commentID uint64, content string)
	NotifyFollow(ctx context.Context, recipientID, actorID uint64)
	NotifyFavorite(ctx context.Context, recipientID, actorID, postID uint64)
	NotifyMentions(ctx context.Context, actorID, postID, commentID uint64, content string)
}

type RowFunc func(ctx context.Context, row map[string]any) error

// CanalHandler 订阅一张表的 binlog，只关心 INSERT
// 同一条消息中的行依次处理，任一行返回错误则整条消息重试
type CanalHandler struct {
	name     string
	table    string
	onInsert RowFunc
}

func NewCanalHandler(name, table string, onInsert RowFunc) *CanalHandler {
	return &CanalHandler{
		name:     name,
		table:    table,
		onInsert: onInsert,
	}
}

func (h *CanalHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("canal consumer setup", "name", h.name, "table", h.table)
	return nil
}

func (h *CanalHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("canal consumer cleanup", "name", h.name)
	return nil
}

func (h *CanalHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("canal consume claim", "name", h.name, "topic", claim.Topic(), "partition", claim.Partition())
	err := pullMessageBatch(session, claim, h.logic)
	if err != nil {
		log.Error("canal process batch error", "name", h.name, "err", err)
		return err
	}
	return nil
}

func (h *CanalHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, h.table)
	if err != nil {
		return err
	}

	if canalMsg.Type != INSERT {
		return nil
	}

	for _, row := range canalMsg.Data {
		if err = h.onInsert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// postAuthor 查询帖子作者，帖子不存在或已删除时返回 0
func postAuthor(ctx context.Context, postRepo repository.PostRepo, postID uint64) (uint64, error) {
	if postID == 0 {
		return 0, nil
	}
	posts, err := postRepo.GetPostByIds(ctx, []uint64{postID})
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		log.WarnContext(ctx, "post not found for notification", "postID", postID)
		return 0, nil
	}
	return posts[0].UserID, nil
}
