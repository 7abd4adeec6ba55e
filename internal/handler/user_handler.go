package handler

import (
	"net/http"

	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责返回当前请求身份对应的用户信息。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetIdentity 返回 {user: {name, role, email}}，匿名或查询失败时 user 为 null。
func (h *UserHandler) GetIdentity(c *gin.Context) {
	id, ok := identity.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	profile, err := h.userService.GetIdentityProfile(c.Request.Context(), id.UserID)
	if err != nil {
		log.Errorf("GetIdentity: failed to load profile for %s: %v", id.UserID, err)
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}
