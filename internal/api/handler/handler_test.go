package handler

import (
	"Herald/internal/api/dto"
	"Herald/internal/api/middleware"
	"Herald/internal/pkg/ws"
	"Herald/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type stubSysBoxService struct {
	mu         sync.Mutex
	lastUser   uint64
	lastPage   [2]int
	lastMsgID  string
	markErr    error
	unread     int64
	modified   int64
	listResult []*dto.SysBoxDTO
}

func (s *stubSysBoxService) GetNotificationList(_ context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUser = userID
	s.lastPage = [2]int{page, pageSize}
	return s.listResult, nil
}

func (s *stubSysBoxService) GetUnreadCount(_ context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUser = userID
	return &dto.SysBoxUnreadDTO{UnreadCount: s.unread}, nil
}

func (s *stubSysBoxService) MarkRead(_ context.Context, userID uint64, msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUser = userID
	s.lastMsgID = msgID
	return s.markErr
}

func (s *stubSysBoxService) MarkAllRead(_ context.Context, userID uint64) (*dto.SysBoxReadAllDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUser = userID
	return &dto.SysBoxReadAllDTO{Modified: s.modified}, nil
}

type stubNotifyService struct {
	service.NotifyService
	mu        sync.Mutex
	title     string
	content   string
	delivered int
}

func (s *stubNotifyService) BroadcastSystem(_ context.Context, title, content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title, s.content = title, content
	return s.delivered
}

// asUser 模拟鉴权中间件写入的上下文
func asUser(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Next()
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) envelope {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s status = %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return env
}

func newSysBoxRouter(svc service.SysBoxService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSysBoxHandler(svc)
	r := gin.New()
	g := r.Group("/api/sysbox", asUser(77))
	g.GET("/list", h.GetNotificationList)
	g.GET("/unread", h.GetUnreadCount)
	g.POST("/read", h.MarkRead)
	g.POST("/read-all", h.MarkAllRead)
	return r
}

func TestSysBoxHandler_List(t *testing.T) {
	t.Parallel()

	svc := &stubSysBoxService{listResult: []*dto.SysBoxDTO{{ID: "abc", Type: "LIKE"}}}
	r := newSysBoxRouter(svc)

	env := doRequest(t, r, http.MethodGet, "/api/sysbox/list?page=3&page_size=20", "")
	if env.Code != 200 {
		t.Fatalf("code = %d, msg = %s", env.Code, env.Message)
	}
	var list []*dto.SysBoxDTO
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 1 || list[0].ID != "abc" {
		t.Errorf("data = %s, err = %v", env.Data, err)
	}
	if svc.lastUser != 77 || svc.lastPage != [2]int{3, 20} {
		t.Errorf("service called with user=%d page=%v", svc.lastUser, svc.lastPage)
	}

	doRequest(t, r, http.MethodGet, "/api/sysbox/list", "")
	if svc.lastPage != [2]int{1, 10} {
		t.Errorf("default paging = %v, want [1 10]", svc.lastPage)
	}
}

func TestSysBoxHandler_UnreadAndReadAll(t *testing.T) {
	t.Parallel()

	svc := &stubSysBoxService{unread: 4, modified: 4}
	r := newSysBoxRouter(svc)

	env := doRequest(t, r, http.MethodGet, "/api/sysbox/unread", "")
	var unread dto.SysBoxUnreadDTO
	if err := json.Unmarshal(env.Data, &unread); err != nil || unread.UnreadCount != 4 {
		t.Errorf("unread data = %s, err = %v", env.Data, err)
	}

	env = doRequest(t, r, http.MethodPost, "/api/sysbox/read-all", "")
	var all dto.SysBoxReadAllDTO
	if err := json.Unmarshal(env.Data, &all); err != nil || all.Modified != 4 {
		t.Errorf("read-all data = %s, err = %v", env.Data, err)
	}
}

func TestSysBoxHandler_MarkRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		markErr  error
		wantCode int
	}{
		{name: "ok", body: `{"msgId":"65f000000000000000000001"}`, wantCode: 200},
		{name: "missing id", body: `{}`, wantCode: 400},
		{name: "bad json", body: `{`, wantCode: 400},
		{name: "service rejects id", body: `{"msgId":"zzz"}`, markErr: service.ErrParamInvalid, wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubSysBoxService{markErr: tt.markErr}
			env := doRequest(t, newSysBoxRouter(svc), http.MethodPost, "/api/sysbox/read", tt.body)
			if env.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", env.Code, tt.wantCode, env.Message)
			}
		})
	}
}

func newAdminRouter(notify service.NotifyService, registry *ws.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotifyAdminHandler(notify, registry)
	r := gin.New()
	g := r.Group("/api/admin/notify")
	g.POST("/broadcast", h.Broadcast)
	g.GET("/online", h.OnlineCount)
	g.GET("/online/:user_id", h.IsOnline)
	return r
}

func TestNotifyAdminHandler_Broadcast(t *testing.T) {
	t.Parallel()

	notify := &stubNotifyService{delivered: 3}
	r := newAdminRouter(notify, ws.NewRegistry())

	env := doRequest(t, r, http.MethodPost, "/api/admin/notify/broadcast", `{"title":"维护","content":"今晚停机"}`)
	if env.Code != 200 {
		t.Fatalf("code = %d, msg = %s", env.Code, env.Message)
	}
	var res dto.BroadcastDTO
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Delivered != 3 {
		t.Errorf("data = %s, err = %v", env.Data, err)
	}
	if notify.title != "维护" || notify.content != "今晚停机" {
		t.Errorf("broadcast args = %q/%q", notify.title, notify.content)
	}

	env = doRequest(t, r, http.MethodPost, "/api/admin/notify/broadcast", `{"title":"`+strings.Repeat("长", 51)+`","content":"x"}`)
	if env.Code != 400 {
		t.Errorf("oversized title code = %d, want 400", env.Code)
	}

	env = doRequest(t, r, http.MethodPost, "/api/admin/notify/broadcast", `{"title":"t"}`)
	if env.Code != 400 {
		t.Errorf("missing content code = %d, want 400", env.Code)
	}
}

func TestNotifyAdminHandler_OnlineStatus(t *testing.T) {
	t.Parallel()

	registry := ws.NewRegistry()
	registry.Register(5, nopConn{})
	r := newAdminRouter(&stubNotifyService{}, registry)

	env := doRequest(t, r, http.MethodGet, "/api/admin/notify/online", "")
	var count dto.OnlineCountDTO
	if err := json.Unmarshal(env.Data, &count); err != nil || count.OnlineCount != 1 {
		t.Errorf("online count data = %s, err = %v", env.Data, err)
	}

	env = doRequest(t, r, http.MethodGet, "/api/admin/notify/online/5", "")
	var status dto.OnlineStatusDTO
	if err := json.Unmarshal(env.Data, &status); err != nil || !status.Online || status.UserID != 5 {
		t.Errorf("status data = %s, err = %v", env.Data, err)
	}

	env = doRequest(t, r, http.MethodGet, "/api/admin/notify/online/6", "")
	status = dto.OnlineStatusDTO{}
	if err := json.Unmarshal(env.Data, &status); err != nil || status.Online {
		t.Errorf("offline status data = %s, err = %v", env.Data, err)
	}

	env = doRequest(t, r, http.MethodGet, "/api/admin/notify/online/abc", "")
	if env.Code != 400 {
		t.Errorf("bad user id code = %d, want 400", env.Code)
	}
}

type nopConn struct{}

func (nopConn) WriteMessage(int, []byte) error { return nil }
func (nopConn) WriteControl(int, []byte, time.Time) error { return nil }
func (nopConn) SetWriteDeadline(time.Time) error { return nil }
func (nopConn) Close() error { return nil }
