package api

import (
	"Herald/internal/api/config"
	"Herald/internal/api/middleware"
	"Herald/internal/pkg/logger"
	"Herald/internal/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, validator security.CredentialValidator, cfg *config.Config) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, cfg.Logstash.Index, cfg.Logstash.Token)

	wsPath := cfg.WS.Path
	if wsPath == "" {
		wsPath = "/notify/ws"
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		// 长连接在握手内自行鉴权
		apiGroup.GET(wsPath, group.WSHandler.Connect)

		sysbox := apiGroup.Group("/sysbox")
		sysbox.Use(middleware.AuthMiddleware(validator))
		{
			sysbox.GET("/list", group.SysBoxHandler.GetNotificationList)
			sysbox.GET("/unread", group.SysBoxHandler.GetUnreadCount)
			sysbox.POST("/read", group.SysBoxHandler.MarkRead)
			sysbox.POST("/read/all", group.SysBoxHandler.MarkAllRead)
		}

		adminGroup := apiGroup.Group("/admin/notify")
		adminGroup.Use(middleware.AuthMiddleware(validator), middleware.CheckRoles("ADMIN"))
		{
			adminGroup.POST("/broadcast", group.NotifyAdminHandler.Broadcast)
			adminGroup.GET("/online", group.NotifyAdminHandler.OnlineCount)
			adminGroup.GET("/online/:user_id", group.NotifyAdminHandler.IsOnline)
		}
	}

	return r
}
