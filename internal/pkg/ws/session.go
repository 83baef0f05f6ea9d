package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn 是 Session 对底层连接的最小依赖，*websocket.Conn 天然满足
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session 一条已鉴权的长连接
type Session struct {
	id          string
	userID      uint64
	conn        Conn
	connectedAt time.Time
	lastSeen    atomic.Int64

	// gorilla/websocket 同一时刻只允许一个写者
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func newSession(userID uint64, conn Conn, now time.Time) *Session {
	s := &Session{
		id:          uuid.NewString(),
		userID:      userID,
		conn:        conn,
		connectedAt: now,
	}
	s.lastSeen.Store(now.UnixNano())
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() uint64 {
	return s.userID
}

func (s *Session) ConnectedAt() time.Time {
	return s.connectedAt
}

// LastSeen 最近一次心跳时间
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Touch 刷新心跳时间
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// write 串行写入一帧文本
func (s *Session) write(data []byte, timeout time.Duration) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// closeWith 发送关闭帧后关闭底层连接，只生效一次
func (s *Session) closeWith(code int, reason string) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if code != 0 {
			msg := websocket.FormatCloseMessage(code, reason)
			// 控制帧可以与数据帧并发写，这里只需一个较短的期限
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		_ = s.conn.Close()
	})
}
