package handler

import (
	"net/http"
	"time"

	"chatdesk-go/internal/model"
	"chatdesk-go/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责处理会话列表、创建与删除的请求。所有接口都要求登录。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionView 是会话在侧边栏中的结构，messages 最多包含最近一条消息。
type sessionView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	UserID    *string       `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []messageView `json:"messages"`
}

func toSessionView(s model.ChatSession) sessionView {
	return sessionView{
		ID:        s.ID,
		Title:     s.Title,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  toMessageViews(s.Messages),
	}
}

// ListSessions 返回当前用户的会话列表，最近更新的在前。
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "")
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toSessionView(s))
	}
	c.JSON(http.StatusOK, views)
}

// CreateSession 为当前用户创建一个标题为 "New Chat" 的空会话。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	session, err := h.sessionService.CreateSession(c.Request.Context(), &userID, "")
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, toSessionView(*session))
}

// DeleteSession 删除当前用户的一个会话及其消息。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.sessionService.DeleteSession(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session deleted"})
}

// ClearSessions 删除当前用户的全部会话。
func (h *SessionHandler) ClearSessions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	n, err := h.sessionService.ClearAllSessions(c.Request.Context(), &userID)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All chat history cleared", "deleted": n})
}
