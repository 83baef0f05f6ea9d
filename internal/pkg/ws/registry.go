package ws

import (
	"Herald/internal/pkg/consts"
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// IdlePolicy 判断会话是否应因空闲被驱逐，返回 false 表示保留
type IdlePolicy func(s *Session, idle time.Duration) bool

// NeverEvict 默认策略：只观察不驱逐
func NeverEvict(*Session, time.Duration) bool {
	return false
}

// EvictAfter 空闲超过 timeout 即驱逐
func EvictAfter(timeout time.Duration) IdlePolicy {
	return func(_ *Session, idle time.Duration) bool {
		return timeout > 0 && idle > timeout
	}
}

type Option func(*Registry)

// WithWriteTimeout 单帧写超时
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.writeTimeout = d
	}
}

// WithIdlePolicy 设置空闲驱逐策略
func WithIdlePolicy(p IdlePolicy) Option {
	return func(r *Registry) {
		if p != nil {
			r.idlePolicy = p
		}
	}
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry 进程内 userID -> 长连接 的唯一持有者
// 每个用户同一时刻至多一条 Session，新的握手会替换并关闭旧连接
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session

	writeTimeout time.Duration
	idlePolicy   IdlePolicy
	now          func() time.Time
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:     make(map[uint64]*Session),
		writeTimeout: 10 * time.Second,
		idlePolicy:   NeverEvict,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 原子地安装 userID 的新连接，旧连接在锁外关闭
func (r *Registry) Register(userID uint64, conn Conn) *Session {
	s := newSession(userID, conn, r.now())

	r.mu.Lock()
	old := r.sessions[userID]
	r.sessions[userID] = s
	r.mu.Unlock()

	if old != nil {
		log.Info("ws session replaced", "userID", userID, "old", old.id, "new", s.id)
		old.closeWith(consts.WsCloseReplaced, "session replaced")
	}
	return s
}

// Unregister 仅当映射仍指向该 Session 时移除；无论如何都会关闭它，可重复调用
func (r *Registry) Unregister(s *Session) {
	if s == nil {
		return
	}
	if r.remove(s) {
		log.Info("ws session removed", "userID", s.userID, "session", s.id)
	}
	s.closeWith(0, "")
}

// Send 向在线用户推送一条消息，任何失败都只返回 false
func (r *Registry) Send(ctx context.Context, userID uint64, payload any) bool {
	r.mu.RLock()
	s := r.sessions[userID]
	r.mu.RUnlock()

	if s == nil || s.IsClosed() {
		return false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.ErrorContext(ctx, "ws payload marshal failed", "userID", userID, "err", err)
		return false
	}
	return r.deliver(ctx, s, data)
}

// Broadcast 向所有在线连接推送，返回成功条数
func (r *Registry) Broadcast(ctx context.Context, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		log.ErrorContext(ctx, "ws broadcast marshal failed", "err", err)
		return 0
	}

	snapshot := r.snapshot()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, s := range snapshot {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if r.deliver(ctx, s, data) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	log.InfoContext(ctx, "ws broadcast finished", "online", len(snapshot), "delivered", delivered)
	return delivered
}

// SendSession 向指定 Session 推送，不经过 userID 查找
func (r *Registry) SendSession(ctx context.Context, s *Session, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.ErrorContext(ctx, "ws payload marshal failed", "userID", s.userID, "err", err)
		return false
	}
	return r.deliver(ctx, s, data)
}

// Heartbeat 刷新心跳并回复 pong
func (r *Registry) Heartbeat(ctx context.Context, s *Session) bool {
	s.Touch(r.now())
	return r.deliver(ctx, s, []byte(consts.WsPong))
}

// Touch 仅刷新心跳时间，用于协议层 ping
func (r *Registry) Touch(s *Session) {
	s.Touch(r.now())
}

func (r *Registry) IsOnline(userID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepIdle 按空闲策略检查所有连接，返回被驱逐的数量
func (r *Registry) SweepIdle(ctx context.Context) int {
	now := r.now()
	evicted := 0
	for _, s := range r.snapshot() {
		idle := now.Sub(s.LastSeen())
		if !r.idlePolicy(s, idle) {
			continue
		}
		if r.remove(s) {
			s.closeWith(consts.WsCloseEvicted, "idle timeout")
			evicted++
			log.InfoContext(ctx, "ws session evicted", "userID", s.userID, "idle", idle)
		}
	}
	return evicted
}

// CloseAll 关闭全部连接，用于优雅退出
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uint64]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
}

func (r *Registry) deliver(ctx context.Context, s *Session, data []byte) bool {
	if err := s.write(data, r.writeTimeout); err != nil {
		log.WarnContext(ctx, "ws push failed", "userID", s.userID, "session", s.id, "err", err)
		r.Unregister(s)
		return false
	}
	return true
}

func (r *Registry) remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.userID]; ok && cur == s {
		delete(r.sessions, s.userID)
		return true
	}
	return false
}

func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
