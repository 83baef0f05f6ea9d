package service

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"Herald/internal/pkg/util"
	"Herald/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

const (
	titleRuneLimit   = 20
	commentRuneLimit = 50
)

// Pusher 在线推送通道，由 ws.Registry 实现
type Pusher interface {
	Send(ctx context.Context, userID uint64, payload any) bool
	Broadcast(ctx context.Context, payload any) int
}

// NotifyService 把业务事件转换为站内通知并尝试实时推送
// 所有方法都不返回错误，失败只记录日志，不影响触发它的业务操作
type NotifyService interface {
	NotifyLike(ctx context.Context, recipientID, actorID, postID uint64)
	NotifyComment(ctx context.Context, recipientID, actorID, postID, commentID uint64, content string)
	NotifyFollow(ctx context.Context, recipientID, actorID uint64)
	NotifyFavorite(ctx context.Context, recipientID, actorID, postID uint64)
	NotifyMentions(ctx context.Context, actorID, postID, commentID uint64, content string)
	BroadcastSystem(ctx context.Context, title, content string) int
}

type notifyServiceImpl struct {
	sysBoxRepo   mongo.SysBoxRepo
	postRepo     repository.PostRepo
	profiles     UserProfileService
	pusher       Pusher
	writeTimeout time.Duration
	now          func() time.Time
}

func NewNotifyService(
	sysBox mongo.SysBoxRepo,
	postRepo repository.PostRepo,
	profiles UserProfileService,
	pusher Pusher,
	writeTimeout time.Duration,
) NotifyService {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &notifyServiceImpl{
		sysBoxRepo:   sysBox,
		postRepo:     postRepo,
		profiles:     profiles,
		pusher:       pusher,
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

// event 一次待分发的通知
type event struct {
	kind        string
	recipientID uint64
	actorID     uint64
	postID      uint64
	commentID   uint64
	title       string
	// render 拿到发起者昵称与帖子标题后生成正文
	render func(actorName, postTitle string) string
	extra  map[string]any
}

func (s *notifyServiceImpl) NotifyLike(ctx context.Context, recipientID, actorID, postID uint64) {
	s.dispatch(ctx, event{
		kind:        consts.NotifyLike,
		recipientID: recipientID,
		actorID:     actorID,
		postID:      postID,
		title:       "收到新的点赞",
		render: func(actorName, postTitle string) string {
			return fmt.Sprintf("%s 赞了你的文章《%s》", actorName, postTitle)
		},
	})
}

func (s *notifyServiceImpl) NotifyComment(ctx context.Context, recipientID, actorID, postID, commentID uint64, content string) {
	comment := util.TruncateRunes(content, commentRuneLimit)
	s.dispatch(ctx, event{
		kind:        consts.NotifyComment,
		recipientID: recipientID,
		actorID:     actorID,
		postID:      postID,
		commentID:   commentID,
		title:       "收到新的评论",
		render: func(actorName, postTitle string) string {
			return fmt.Sprintf("%s 评论了你的文章《%s》：%s", actorName, postTitle, comment)
		},
		extra: map[string]any{"comment": comment},
	})
}

func (s *notifyServiceImpl) NotifyFollow(ctx context.Context, recipientID, actorID uint64) {
	s.dispatch(ctx, event{
		kind:        consts.NotifyFollow,
		recipientID: recipientID,
		actorID:     actorID,
		title:       "新的关注者",
		render: func(actorName, _ string) string {
			return fmt.Sprintf("%s 关注了你", actorName)
		},
	})
}

func (s *notifyServiceImpl) NotifyFavorite(ctx context.Context, recipientID, actorID, postID uint64) {
	s.dispatch(ctx, event{
		kind:        consts.NotifyFavorite,
		recipientID: recipientID,
		actorID:     actorID,
		postID:      postID,
		title:       "文章被收藏",
		render: func(actorName, postTitle string) string {
			return fmt.Sprintf("%s 收藏了你的文章《%s》", actorName, postTitle)
		},
	})
}

// NotifyMentions 解析评论中的 @昵称，逐个通知被提及的用户
func (s *notifyServiceImpl) NotifyMentions(ctx context.Context, actorID, postID, commentID uint64, content string) {
	names := util.ExtractMentions(content)
	if len(names) == 0 {
		return
	}

	resolved, err := s.profiles.ResolveNicknames(ctx, names)
	if err != nil {
		log.WarnContext(ctx, "resolve mentions failed", "actorID", actorID, "err", err)
		return
	}

	comment := util.TruncateRunes(content, commentRuneLimit)
	notified := make(map[uint64]struct{}, len(resolved))
	for _, name := range names {
		userID, ok := resolved[name]
		if !ok {
			continue
		}
		if _, dup := notified[userID]; dup {
			continue
		}
		notified[userID] = struct{}{}

		s.dispatch(ctx, event{
			kind:        consts.NotifyMention,
			recipientID: userID,
			actorID:     actorID,
			postID:      postID,
			commentID:   commentID,
			title:       "有人提到了你",
			render: func(actorName, postTitle string) string {
				return fmt.Sprintf("%s 在《%s》中提到了你：%s", actorName, postTitle, comment)
			},
			extra: map[string]any{"comment": comment},
		})
	}
}

// BroadcastSystem 系统广播只推送给在线用户，不落库
func (s *notifyServiceImpl) BroadcastSystem(ctx context.Context, title, content string) int {
	msg := &dto.PushMessage{
		Type:         consts.NotifySystem,
		Title:        title,
		Content:      content,
		FromUserName: consts.SystemSenderName,
		Timestamp:    s.now().UnixMilli(),
	}
	delivered := s.pusher.Broadcast(ctx, msg)
	log.InfoContext(ctx, "system broadcast sent", "title", title, "delivered", delivered)
	return delivered
}

func (s *notifyServiceImpl) dispatch(ctx context.Context, e event) {
	if e.recipientID == 0 || e.recipientID == e.actorID {
		return
	}

	actorName, actorAvatar := s.resolveActor(ctx, e.actorID)
	postTitle := ""
	if e.postID > 0 {
		postTitle = s.resolvePostTitle(ctx, e.postID)
	}

	now := s.now()
	content := e.render(actorName, postTitle)

	payload := map[string]any{
		"actor_name": actorName,
	}
	if postTitle != "" {
		payload["post_title"] = postTitle
	}
	for k, v := range e.extra {
		payload[k] = v
	}

	s.persist(ctx, &mongo.SysBoxModel{
		ReceiverID: e.recipientID,
		SenderID:   e.actorID,
		Type:       e.kind,
		TargetID:   e.postID,
		CommentID:  e.commentID,
		Content:    content,
		Payload:    payload,
		CreatedAt:  now,
	})

	delivered := s.pusher.Send(ctx, e.recipientID, &dto.PushMessage{
		Type:           e.kind,
		Title:          e.title,
		Content:        content,
		ArticleID:      e.postID,
		CommentID:      e.commentID,
		FromUserID:     e.actorID,
		FromUserName:   actorName,
		FromUserAvatar: actorAvatar,
		Timestamp:      now.UnixMilli(),
	})

	log.DebugContext(ctx, "notification dispatched",
		"type", e.kind,
		"recipientID", e.recipientID,
		"actorID", e.actorID,
		"delivered", delivered,
	)
}

// persist 落库失败只告警，推送照常进行
func (s *notifyServiceImpl) persist(ctx context.Context, msg *mongo.SysBoxModel) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	if err := s.sysBoxRepo.CreateNotification(writeCtx, msg); err != nil {
		log.WarnContext(ctx, "failed to persist notification",
			"type", msg.Type,
			"recipientID", msg.ReceiverID,
			"err", err,
		)
	}
}

func (s *notifyServiceImpl) resolveActor(ctx context.Context, actorID uint64) (string, string) {
	if actorID == 0 {
		return consts.SystemSenderName, ""
	}
	user, err := s.profiles.GetUserSimpleInfo(ctx, actorID)
	if err != nil {
		log.WarnContext(ctx, "failed to load actor profile", "actorID", actorID, "err", err)
	}
	if user == nil || user.Nickname == "" {
		return consts.UnknownSenderName, ""
	}
	return user.Nickname, user.AvatarURL
}

func (s *notifyServiceImpl) resolvePostTitle(ctx context.Context, postID uint64) string {
	posts, err := s.postRepo.GetPostByIds(ctx, []uint64{postID})
	if err != nil {
		log.WarnContext(ctx, "failed to load post for notification", "postID", postID, "err", err)
	}
	if len(posts) == 0 || posts[0].Title == "" {
		return consts.UnknownPostTitle
	}
	return util.TruncateRunes(posts[0].Title, titleRuneLimit)
}
