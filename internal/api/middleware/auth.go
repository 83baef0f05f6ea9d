package middleware

import (
	"Herald/internal/pkg/response"
	"Herald/internal/pkg/security"
	"errors"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxRoles  = "roles"
)

// AuthMiddleware 校验 Bearer Token 并将用户身份注入 Context
func AuthMiddleware(validator security.CredentialValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := validator.Validate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, security.ErrInvalidCredential) || errors.Is(err, security.ErrCredentialRevoked) {
				response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			} else {
				log.ErrorContext(c.Request.Context(), "credential validation failed", "err", err)
				response.Fail(c, response.InternalServerError, "未知错误")
			}
			c.Abort()
			return
		}

		c.Set(CtxUserID, identity.UserID)
		c.Set(CtxRoles, identity.Roles)

		c.Next()
	}
}
