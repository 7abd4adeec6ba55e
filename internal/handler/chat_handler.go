package handler

import (
	"errors"
	"net/http"
	"time"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// chatFailureReply 是对话失败时展示在聊天界面中的回复。
const chatFailureReply = "Sorry, I couldn't process your message right now. Please try again."

// ChatHandler 负责处理对话轮次与对话记录的请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 是 POST /chat 的请求体。
type SendMessageRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"sessionId"`
}

// messageView 是返回给前端的消息结构。
type messageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMessageViews(msgs []model.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return views
}

// SendMessage 处理一轮对话。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := h.chatService.SendMessage(c.Request.Context(), service.TurnInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    identity.UserID(c.Request.Context()),
	})
	if err != nil {
		if statusFor(apperr.KindOf(err)) < http.StatusInternalServerError {
			writeError(c, err, "")
			return
		}
		log.Error("[ChatHandler] chat turn failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    internalServerError,
			"response": chatFailureReply,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  res.Response,
		"sessionId": res.SessionID,
	})
}

// GetMessages 返回会话的完整记录，按时间升序。
func (h *ChatHandler) GetMessages(c *gin.Context) {
	msgs, err := h.chatService.GetTranscript(c.Request.Context(), c.Query("sessionId"), identity.UserID(c.Request.Context()))
	if err != nil {
		if errors.Is(err, apperr.ErrBadRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
			return
		}
		writeError(c, err, "Failed to fetch messages")
		return
	}
	c.JSON(http.StatusOK, toMessageViews(msgs))
}
