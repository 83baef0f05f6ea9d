package kafka

import (
	"Herald/internal/model"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

type call struct {
	kind      string
	recipient uint64
	actor     uint64
	post      uint64
	comment   uint64
	content   string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []call
}

func (n *recordingNotifier) record(c call) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) NotifyLike(_ context.Context, recipientID, actorID, postID uint64) {
	n.record(call{kind: "LIKE", recipient: recipientID, actor: actorID, post: postID})
}

func (n *recordingNotifier) NotifyComment(_ context.Context, recipientID, actorID, postID, commentID uint64, content string) {
	n.record(call{kind: "COMMENT", recipient: recipientID, actor: actorID, post: postID, comment: commentID, content: content})
}

func (n *recordingNotifier) NotifyFollow(_ context.Context, recipientID, actorID uint64) {
	n.record(call{kind: "FOLLOW", recipient: recipientID, actor: actorID})
}

func (n *recordingNotifier) NotifyFavorite(_ context.Context, recipientID, actorID, postID uint64) {
	n.record(call{kind: "FAVORITE", recipient: recipientID, actor: actorID, post: postID})
}

func (n *recordingNotifier) NotifyMentions(_ context.Context, actorID, postID, commentID uint64, content string) {
	n.record(call{kind: "MENTION", actor: actorID, post: postID, comment: commentID, content: content})
}

type stubPostRepo struct {
	posts   map[uint64]*model.Post
	err     error
	lookups atomic.Int32
}

func (r *stubPostRepo) GetPostByIds(_ context.Context, ids []uint64) ([]*model.Post, error) {
	r.lookups.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func canalMsg(t *testing.T, table, typ string, rows ...map[string]any) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(&CanalMessage{Database: "cornerstone", Table: table, Type: typ, Data: rows})
	if err != nil {
		t.Fatalf("marshal canal message: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "canal-" + table, Value: value}
}

func TestStrToUint64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want uint64
	}{
		{"42", 42},
		{"", 0},
		{"-1", 0},
		{"abc", 0},
		{nil, 0},
		{float64(7), 7},
		{int64(9), 9},
	}
	for _, tt := range tests {
		if got := StrToUint64(tt.in); got != tt.want {
			t.Errorf("StrToUint64(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if !StrToBool("1") || StrToBool("0") || StrToBool(nil) {
		t.Error("StrToBool mismatch")
	}
}

func TestToCanalMessage(t *testing.T) {
	t.Parallel()

	if _, err := ToCanalMessage(&sarama.ConsumerMessage{Value: []byte("{")}, "likes"); !errors.Is(err, ErrSkipMessage) {
		t.Errorf("bad json err = %v, want ErrSkipMessage", err)
	}
	if _, err := ToCanalMessage(canalMsg(t, "posts", INSERT, map[string]any{"id": "1"}), "likes"); !errors.Is(err, ErrSkipMessage) {
		t.Errorf("table mismatch err = %v, want ErrSkipMessage", err)
	}
	if _, err := ToCanalMessage(canalMsg(t, "likes", INSERT), "likes"); !errors.Is(err, ErrSkipMessage) {
		t.Errorf("empty data err = %v, want ErrSkipMessage", err)
	}
	msg, err := ToCanalMessage(canalMsg(t, "likes", INSERT, map[string]any{"user_id": "2"}), "likes")
	if err != nil || msg.Type != INSERT || StrToUint64(msg.Data[0]["user_id"]) != 2 {
		t.Errorf("ToCanalMessage() = %+v, %v", msg, err)
	}
}

func TestLikesAndCollectionsHandlers(t *testing.T) {
	t.Parallel()

	posts := &stubPostRepo{posts: map[uint64]*model.Post{5: {ID: 5, UserID: 10, Title: "hello"}}}

	tests := []struct {
		name    string
		handler func(n Notifier) *CanalHandler
		table   string
		kind    string
	}{
		{"likes", func(n Notifier) *CanalHandler { return NewLikesHandler(posts, n) }, "likes", "LIKE"},
		{"collections", func(n Notifier) *CanalHandler { return NewCollectionsHandler(posts, n) }, "collections", "FAVORITE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			h := tt.handler(n)
			ctx := context.Background()

			row := map[string]any{"id": "1", "user_id": "2", "post_id": "5"}
			if err := h.logic(ctx, canalMsg(t, tt.table, INSERT, row)); err != nil {
				t.Fatalf("logic(INSERT) error = %v", err)
			}
			if err := h.logic(ctx, canalMsg(t, tt.table, DELETE, row)); err != nil {
				t.Fatalf("logic(DELETE) error = %v", err)
			}

			want := call{kind: tt.kind, recipient: 10, actor: 2, post: 5}
			if len(n.calls) != 1 || n.calls[0] != want {
				t.Errorf("calls = %+v, want [%+v]", n.calls, want)
			}
		})
	}
}

func TestLikesHandler_PostLookup(t *testing.T) {
	t.Parallel()

	t.Run("missing post yields no recipient", func(t *testing.T) {
		n := &recordingNotifier{}
		h := NewLikesHandler(&stubPostRepo{}, n)
		if err := h.logic(context.Background(), canalMsg(t, "likes", INSERT, map[string]any{"user_id": "2", "post_id": "99"})); err != nil {
			t.Fatalf("logic() error = %v", err)
		}
		if len(n.calls) != 1 || n.calls[0].recipient != 0 {
			t.Errorf("calls = %+v, want one call with recipient 0", n.calls)
		}
	})

	t.Run("lookup error is retried", func(t *testing.T) {
		n := &recordingNotifier{}
		h := NewLikesHandler(&stubPostRepo{err: errors.New("db down")}, n)
		if err := h.logic(context.Background(), canalMsg(t, "likes", INSERT, map[string]any{"user_id": "2", "post_id": "5"})); err == nil {
			t.Fatal("logic() should surface lookup error")
		}
		if len(n.calls) != 0 {
			t.Errorf("calls = %+v, want none", n.calls)
		}
	})
}

func TestCommentsHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("top level comment notifies author and mentions", func(t *testing.T) {
		posts := &stubPostRepo{posts: map[uint64]*model.Post{5: {ID: 5, UserID: 10}}}
		n := &recordingNotifier{}
		h := NewCommentsHandler(posts, n)

		row := map[string]any{"id": "30", "post_id": "5", "user_id": "2", "content": "hi @bob", "reply_to_user_id": "0", "is_deleted": "0"}
		if err := h.logic(ctx, canalMsg(t, "post_comments", INSERT, row)); err != nil {
			t.Fatalf("logic() error = %v", err)
		}

		want := []call{
			{kind: "COMMENT", recipient: 10, actor: 2, post: 5, comment: 30, content: "hi @bob"},
			{kind: "MENTION", actor: 2, post: 5, comment: 30, content: "hi @bob"},
		}
		if len(n.calls) != len(want) || n.calls[0] != want[0] || n.calls[1] != want[1] {
			t.Errorf("calls = %+v, want %+v", n.calls, want)
		}
	})

	t.Run("reply notifies author and replied user", func(t *testing.T) {
		posts := &stubPostRepo{posts: map[uint64]*model.Post{5: {ID: 5, UserID: 10}}}
		n := &recordingNotifier{}
		h := NewCommentsHandler(posts, n)

		row := map[string]any{"id": "31", "post_id": "5", "user_id": "2", "content": "agree", "reply_to_user_id": "8"}
		if err := h.logic(ctx, canalMsg(t, "post_comments", INSERT, row)); err != nil {
			t.Fatalf("logic() error = %v", err)
		}

		want := []call{
			{kind: "COMMENT", recipient: 10, actor: 2, post: 5, comment: 31, content: "agree"},
			{kind: "COMMENT", recipient: 8, actor: 2, post: 5, comment: 31, content: "agree"},
			{kind: "MENTION", actor: 2, post: 5, comment: 31, content: "agree"},
		}
		if len(n.calls) != len(want) {
			t.Fatalf("calls = %+v, want %+v", n.calls, want)
		}
		for i := range want {
			if n.calls[i] != want[i] {
				t.Errorf("call[%d] = %+v, want %+v", i, n.calls[i], want[i])
			}
		}
	})

	t.Run("reply to the author is notified once", func(t *testing.T) {
		posts := &stubPostRepo{posts: map[uint64]*model.Post{5: {ID: 5, UserID: 10}}}
		n := &recordingNotifier{}
		h := NewCommentsHandler(posts, n)

		row := map[string]any{"id": "32", "post_id": "5", "user_id": "2", "content": "ok", "reply_to_user_id": "10"}
		if err := h.logic(ctx, canalMsg(t, "post_comments", INSERT, row)); err != nil {
			t.Fatalf("logic() error = %v", err)
		}

		comments := 0
		for _, c := range n.calls {
			if c.kind == "COMMENT" {
				comments++
				if c.recipient != 10 {
					t.Errorf("comment recipient = %d, want 10", c.recipient)
				}
			}
		}
		if comments != 1 {
			t.Errorf("comment notifications = %d, want 1", comments)
		}
	})

	t.Run("deleted rows and updates are ignored", func(t *testing.T) {
		n := &recordingNotifier{}
		h := NewCommentsHandler(&stubPostRepo{}, n)

		deleted := map[string]any{"id": "32", "post_id": "5", "user_id": "2", "is_deleted": "1"}
		_ = h.logic(ctx, canalMsg(t, "post_comments", INSERT, deleted))
		_ = h.logic(ctx, canalMsg(t, "post_comments", UPDATE, map[string]any{"id": "33"}))
		if len(n.calls) != 0 {
			t.Errorf("calls = %+v, want none", n.calls)
		}
	})
}

func TestUserFollowsHandler(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	h := NewUserFollowsHandler(n)
	row := map[string]any{"follower_id": "3", "following_id": "4"}
	if err := h.logic(context.Background(), canalMsg(t, "user_follows", INSERT, row)); err != nil {
		t.Fatalf("logic() error = %v", err)
	}
	want := call{kind: "FOLLOW", recipient: 4, actor: 3}
	if len(n.calls) != 1 || n.calls[0] != want {
		t.Errorf("calls = %+v, want [%+v]", n.calls, want)
	}
}

func TestRunWithRetry(t *testing.T) {
	t.Parallel()

	msg := &sarama.ConsumerMessage{Topic: "t"}

	var attempts atomic.Int32
	ok := runWithRetry(context.Background(), msg, func(context.Context, *sarama.ConsumerMessage) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if !ok || attempts.Load() != 3 {
		t.Errorf("transient: ok=%v attempts=%d, want true/3", ok, attempts.Load())
	}

	attempts.Store(0)
	ok = runWithRetry(context.Background(), msg, func(context.Context, *sarama.ConsumerMessage) error {
		attempts.Add(1)
		return ErrSkipMessage
	})
	if ok || attempts.Load() != 1 {
		t.Errorf("skip: ok=%v attempts=%d, want false/1", ok, attempts.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok = runWithRetry(ctx, msg, func(context.Context, *sarama.ConsumerMessage) error {
		return errors.New("down")
	})
	if ok {
		t.Error("cancelled context should stop retrying")
	}
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context {
	return s.ctx
}

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	ch chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

func TestPullMessageBatch_FlushesOnClose(t *testing.T) {
	t.Parallel()

	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{ch: make(chan *sarama.ConsumerMessage, 40)}
	for i := 0; i < 40; i++ {
		claim.ch <- &sarama.ConsumerMessage{Offset: int64(i)}
	}
	close(claim.ch)

	var handled atomic.Int32
	err := pullMessageBatch(session, claim, func(context.Context, *sarama.ConsumerMessage) error {
		handled.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("pullMessageBatch() error = %v", err)
	}
	if handled.Load() != 40 {
		t.Errorf("handled = %d, want 40", handled.Load())
	}
	// 32 条一批，剩余 8 条在 channel 关闭时提交
	if len(session.marked) != 2 || session.marked[0] != 31 || session.marked[1] != 39 {
		t.Errorf("marked offsets = %v, want [31 39]", session.marked)
	}
}
