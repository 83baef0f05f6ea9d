package wire

import (
	"Herald/internal/api/config"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth:         config.AuthConfig{Provider: "local", JWTSecret: "wire-secret"},
		WS:           config.WSConfig{Path: "/notify/ws", HandshakeTimeout: 1, WriteTimeout: 1, ReadLimit: 512},
		Notification: config.NotificationConfig{Store: "memory", WriteTimeout: 1},
		Logstash:     config.LogstashConfig{Index: "logstash-herald-test"},
	}
}

func TestBuildApplication_MemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := BuildApplication(nil, nil, testConfig())
	if err != nil {
		t.Fatalf("BuildApplication() error = %v", err)
	}
	if app.Registry == nil || app.KafkaManager == nil || app.CronMgr == nil || app.SysBoxRepo == nil {
		t.Fatalf("container has nil components: %+v", app)
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/ping status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sysbox/unread", nil))
	if !strings.Contains(w.Body.String(), `"code":401`) {
		t.Errorf("unauthenticated sysbox body = %s, want code 401", w.Body.String())
	}

	if err = app.CronMgr.RegisterJobs(); err != nil {
		t.Errorf("RegisterJobs() error = %v", err)
	}
}

func TestBuildApplication_InvalidConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"mongo store without connection", func(cfg *config.Config) { cfg.Notification.Store = "mongo" }},
		{"unknown store", func(cfg *config.Config) { cfg.Notification.Store = "cassandra" }},
		{"unknown auth provider", func(cfg *config.Config) { cfg.Auth.Provider = "ldap" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := BuildApplication(nil, nil, cfg); err == nil {
				t.Error("BuildApplication() should fail")
			}
		})
	}
}
