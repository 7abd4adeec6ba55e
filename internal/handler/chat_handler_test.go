package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubChatService struct {
	err error
}

func (s stubChatService) SendMessage(ctx context.Context, in service.TurnInput) (*service.TurnResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.TurnResult{Response: "ok", SessionID: "s-1"}, nil
}

func (s stubChatService) GetTranscript(ctx context.Context, sessionID string, userID *string) ([]model.Message, error) {
	return nil, s.err
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", h.SendMessage)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessage_FailureReturnsAssistantStyleError(t *testing.T) {
	cause := apperr.Wrap(apperr.KindPersistence, "append message", errors.New("pq: connection reset by peer"))
	w := postChat(NewChatHandler(stubChatService{err: cause}), `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","response":"`+chatFailureReply+`"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestSendMessage_Success(t *testing.T) {
	w := postChat(NewChatHandler(stubChatService{}), `{"message":"hi","sessionId":"s-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"ok","sessionId":"s-1"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindBadRequest, http.StatusBadRequest},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindNotFoundOrUnauthorized, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindPersistence, http.StatusInternalServerError},
		{apperr.KindConfiguration, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.kind), tt.kind.String())
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		writeError(c, apperr.Wrap(apperr.KindPersistence, "list documents", errors.New("secret dsn detail")), "Failed to fetch documents")
	})
	r.GET("/missing", func(c *gin.Context) {
		writeError(c, apperr.New(apperr.KindNotFound, "Document not found"), "")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch documents"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Document not found"}`, w.Body.String())
}
