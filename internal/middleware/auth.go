package middleware

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"
	"health_track_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Authenticator 校验令牌并加载会话
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Session, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return strings.TrimSpace(token)
	}
	// 下载链接无法带请求头
	return c.Query("token")
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("authentication failed", zap.String("path", c.FullPath()), zap.Error(err))
			util.RespondError(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, *sess)
		c.Next()
	}
}

// SessionFrom 取出 AuthMiddleware 写入的会话
func SessionFrom(c *gin.Context) (service.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return service.Session{}, false
	}
	sess, ok := v.(service.Session)
	return sess, ok
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		// 管理员直接放行
		hasRole := sess.IsAdmin()
		for _, role := range roles {
			if sess.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
