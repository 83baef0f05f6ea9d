package handler

import (
	"Herald/internal/api/config"
	"Herald/internal/api/dto"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/security"
	"Herald/internal/pkg/ws"
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WsHandler struct {
	registry         *ws.Registry
	validator        security.CredentialValidator
	upgrader         websocket.Upgrader
	handshakeTimeout time.Duration
	readLimit        int64
}

func NewWsHandler(registry *ws.Registry, validator security.CredentialValidator, cfg config.WSConfig) *WsHandler {
	handshakeTimeout := time.Duration(cfg.HandshakeTimeout) * time.Second
	if handshakeTimeout <= 0 {
		handshakeTimeout = 5 * time.Second
	}
	readLimit := cfg.ReadLimit
	if readLimit <= 0 {
		readLimit = 512
	}

	return &WsHandler{
		registry:  registry,
		validator: validator,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		handshakeTimeout: handshakeTimeout,
		readLimit:        readLimit,
	}
}

// Connect 握手：先鉴权，再升级并登记连接
func (s *WsHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()

	identity, err := s.authenticate(ctx, c.Query("token"))
	if err != nil {
		s.reject(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WarnContext(ctx, "WS 协议升级失败", "userID", identity.UserID, "err", err)
		return
	}
	conn.SetReadLimit(s.readLimit)

	session := s.registry.Register(identity.UserID, conn)
	defer s.registry.Unregister(session)

	log.InfoContext(ctx, "用户 WS 连接已建立", "userID", identity.UserID, "session", session.ID())

	ack := &dto.ConnectedAck{
		Type:        consts.WsConnected,
		Message:     "通知通道已连接",
		OnlineCount: s.registry.OnlineCount(),
	}
	if !s.registry.SendSession(ctx, session, ack) {
		return
	}

	s.readLoop(ctx, conn, session)
	log.InfoContext(ctx, "用户 WS 连接已断开", "userID", identity.UserID, "session", session.ID(),
		"duration", time.Since(session.ConnectedAt()))
}

// authenticate 校验凭据，超时同样视为拒绝
func (s *WsHandler) authenticate(ctx context.Context, token string) (*security.Identity, error) {
	if token == "" {
		return nil, security.ErrInvalidCredential
	}
	authCtx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	defer cancel()
	return s.validator.Validate(authCtx, token)
}

// reject 升级后立即以 1003 关闭，不发送任何业务帧；无法升级时直接返回 406
func (s *WsHandler) reject(c *gin.Context, cause error) {
	ctx := c.Request.Context()
	if errors.Is(cause, security.ErrInvalidCredential) || errors.Is(cause, security.ErrCredentialRevoked) {
		log.InfoContext(ctx, "WS 鉴权失败", "err", cause)
	} else {
		log.WarnContext(ctx, "WS 鉴权异常", "err", cause)
	}

	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.AbortWithStatus(http.StatusNotAcceptable)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "invalid credential")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

func (s *WsHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *ws.Session) {
	conn.SetPingHandler(func(appData string) error {
		s.registry.Touch(session)
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) &&
				!session.IsClosed() {
				log.WarnContext(ctx, "WS 读取异常", "userID", session.UserID(), "err", err)
			}
			return
		}

		// 其它帧忽略
		if messageType == websocket.TextMessage && string(data) == consts.WsPing {
			if !s.registry.Heartbeat(ctx, session) {
				return
			}
		}
	}
}
