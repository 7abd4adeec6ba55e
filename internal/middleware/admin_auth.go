package middleware

import (
	"context"
	"errors"
	"net/http"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/model"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserLookup 按 ID 查询用户。
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// AdminAuthMiddleware 检查调用方是否具有管理员角色。
// 此中间件必须在 Identity 之后使用。
func AdminAuthMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity.FromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), id.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				// token 有效但用户已被删除
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			log.Error("[AdminAuth] failed to load user", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}

		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
