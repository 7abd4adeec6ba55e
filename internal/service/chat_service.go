package service

import (
	"context"
	"errors"
	"strings"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/metrics"
	"chatdesk-go/internal/model"
	"chatdesk-go/pkg/log"
)

// TurnState 是一轮对话所处的阶段。
type TurnState string

const (
	TurnReceived              TurnState = "RECEIVED"
	TurnSessionResolved       TurnState = "SESSION_RESOLVED"
	TurnUserMsgPersisted      TurnState = "USER_MSG_PERSISTED"
	TurnResponseProduced      TurnState = "RESPONSE_PRODUCED"
	TurnAssistantMsgPersisted TurnState = "ASSISTANT_MSG_PERSISTED"
	TurnReturned              TurnState = "RETURNED"
)

// TurnInput 是一轮对话的输入。UserID 为 nil 表示匿名。
type TurnInput struct {
	Message   string
	SessionID *string
	UserID    *string
}

// TurnResult 是一轮对话成功后的输出。
type TurnResult struct {
	Response  string
	SessionID string
}

// TurnFailure 描述用户消息已落库、但助手消息没有落库的一轮对话。
type TurnFailure struct {
	SessionID     string
	UserMessageID string
	// LastState 是失败前最后完成的阶段。
	LastState TurnState
	Err       error
}

// TurnFailureHook 处理只完成了一半的对话。
type TurnFailureHook interface {
	OnTurnFailure(ctx context.Context, failure TurnFailure)
}

// AcceptDanglingHook 保留没有回复的用户消息，只记录日志。
type AcceptDanglingHook struct{}

func (AcceptDanglingHook) OnTurnFailure(ctx context.Context, f TurnFailure) {
	log.Warnw("chat turn left a user message without reply",
		"sessionId", f.SessionID,
		"userMessageId", f.UserMessageID,
		"lastState", string(f.LastState),
		"error", f.Err,
	)
}

// ChatService 定义了对话编排的接口。
type ChatService interface {
	SendMessage(ctx context.Context, in TurnInput) (*TurnResult, error)
	GetTranscript(ctx context.Context, sessionID string, userID *string) ([]model.Message, error)
}

type chatService struct {
	sessions  SessionService
	responder Responder
	hook      TurnFailureHook
}

// NewChatService 创建一个新的 ChatService 实例。hook 为 nil 时使用 AcceptDanglingHook。
func NewChatService(sessions SessionService, responder Responder, hook TurnFailureHook) ChatService {
	if hook == nil {
		hook = AcceptDanglingHook{}
	}
	return &chatService{sessions: sessions, responder: responder, hook: hook}
}

// SendMessage 依次完成会话解析、用户消息落库、生成回复、助手消息落库。
// 任一步失败整轮失败，调用方拿不到部分结果。
func (s *chatService) SendMessage(ctx context.Context, in TurnInput) (res *TurnResult, err error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "Message is required")
	}
	defer func() {
		if err != nil {
			metrics.ChatTurns.WithLabelValues(metrics.TurnFailed).Inc()
			return
		}
		metrics.ChatTurns.WithLabelValues(metrics.TurnOK).Inc()
	}()

	state := TurnReceived
	s.trace(state, "")

	session, err := s.sessions.ResolveOrCreateSession(ctx, in.SessionID, in.Message, in.UserID)
	if err != nil {
		return nil, err
	}
	state = TurnSessionResolved
	s.trace(state, session.ID)

	userMsg, err := s.sessions.AppendMessage(ctx, session.ID, model.MessageRoleUser, in.Message)
	if err != nil {
		return nil, err
	}
	state = TurnUserMsgPersisted
	s.trace(state, session.ID)

	history, err := s.sessions.ListMessages(ctx, session.ID)
	if err != nil {
		log.Warnf("[ChatService] failed to load history for session %s: %v", session.ID, err)
		history = nil
	}

	reply, err := s.responder.Respond(ctx, ResponseRequest{SessionID: session.ID, Message: in.Message, History: history})
	if err != nil {
		err = apperr.Wrap(apperr.KindInternal, "generate response", err)
		s.hook.OnTurnFailure(ctx, TurnFailure{SessionID: session.ID, UserMessageID: userMsg.ID, LastState: state, Err: err})
		return nil, err
	}
	state = TurnResponseProduced
	s.trace(state, session.ID)

	if _, err = s.sessions.AppendMessage(ctx, session.ID, model.MessageRoleAssistant, reply); err != nil {
		s.hook.OnTurnFailure(ctx, TurnFailure{SessionID: session.ID, UserMessageID: userMsg.ID, LastState: state, Err: err})
		return nil, err
	}
	state = TurnAssistantMsgPersisted
	s.trace(state, session.ID)

	s.trace(TurnReturned, session.ID)
	return &TurnResult{Response: reply, SessionID: session.ID}, nil
}

// GetTranscript 返回会话的完整记录。会话不存在、没有消息或属于其他用户时都返回空切片。
func (s *chatService) GetTranscript(ctx context.Context, sessionID string, userID *string) ([]model.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "Session ID is required")
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []model.Message{}, nil
		}
		return nil, err
	}
	if !canAccess(session, normalizeUserID(userID)) {
		return []model.Message{}, nil
	}
	return s.sessions.ListMessages(ctx, sessionID)
}

func (s *chatService) trace(state TurnState, sessionID string) {
	log.Debugw("chat turn", "state", string(state), "sessionId", sessionID)
}
