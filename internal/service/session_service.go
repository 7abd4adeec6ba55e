// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/repository"
	"chatdesk-go/pkg/log"
)

// 标题取首条消息的前 titleMaxRunes 个字符，再追加 titleSuffix。
const (
	titleMaxRunes = 50
	titleSuffix   = "..."
)

// DeriveTitle 由首条用户消息生成会话标题。按字符（rune）截断，避免截断多字节字符。
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	return string(runes) + titleSuffix
}

// SessionService 定义了会话存储相关的业务操作。
type SessionService interface {
	CreateSession(ctx context.Context, userID *string, title string) (*model.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ResolveOrCreateSession(ctx context.Context, sessionID *string, firstMessage string, userID *string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error)
	AppendMessage(ctx context.Context, sessionID, role, content string) (*model.Message, error)
	ListMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	DeleteSession(ctx context.Context, sessionID, requestingUserID string) error
	ClearAllSessions(ctx context.Context, requestingUserID *string) (int64, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo}
}

// CreateSession 创建会话，title 为空时使用占位标题。
func (s *sessionService) CreateSession(ctx context.Context, userID *string, title string) (*model.ChatSession, error) {
	if title == "" {
		title = model.DefaultSessionTitle
	}
	session := &model.ChatSession{Title: title, UserID: normalizeUserID(userID)}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	session.Messages = []model.Message{}
	return session, nil
}

// GetSession 按 ID 查询会话，不存在时返回 NotFound。
func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	return s.sessionRepo.FindByID(ctx, sessionID)
}

// ResolveOrCreateSession 找到可用的会话或新建一个：
//   - sessionID 为空、不存在或属于其他用户时，新建会话并以首条消息派生标题；
//   - 会话标题仍为占位标题时，更新一次标题；
//   - 其他情况不修改会话。
//
// 对同一个已命名会话重复调用不会重复创建或重复改名。
func (s *sessionService) ResolveOrCreateSession(ctx context.Context, sessionID *string, firstMessage string, userID *string) (*model.ChatSession, error) {
	userID = normalizeUserID(userID)
	title := DeriveTitle(firstMessage)

	if sessionID == nil || *sessionID == "" {
		return s.CreateSession(ctx, userID, title)
	}

	session, err := s.sessionRepo.FindByID(ctx, *sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Infof("[SessionService] session %s not found, starting a new one", *sessionID)
			return s.CreateSession(ctx, userID, title)
		}
		return nil, err
	}

	if !canAccess(session, userID) {
		// 与“不存在”同样处理，避免暴露其他用户的会话
		log.Warnf("[SessionService] session %s is not accessible to caller, starting a new one", session.ID)
		return s.CreateSession(ctx, userID, title)
	}

	if session.Title == model.DefaultSessionTitle {
		updated, err := s.sessionRepo.UpdateTitleIfDefault(ctx, session.ID, title)
		if err != nil {
			return nil, err
		}
		if updated {
			session.Title = title
		} else {
			// 并发的首轮对话已经改过标题，读取最新值
			if session, err = s.sessionRepo.FindByID(ctx, session.ID); err != nil {
				return nil, err
			}
		}
	}
	return session, nil
}

// ListSessions 返回用户的会话列表，每个会话只附带最近一条消息。
func (s *sessionService) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "Unauthorized")
	}
	return s.sessionRepo.ListByUser(ctx, userID)
}

// AppendMessage 追加消息，不校验会话归属。
func (s *sessionService) AppendMessage(ctx context.Context, sessionID, role, content string) (*model.Message, error) {
	if role != model.MessageRoleUser && role != model.MessageRoleAssistant {
		return nil, apperr.New(apperr.KindBadRequest, "invalid message role: "+role)
	}
	msg := &model.Message{ChatSessionID: sessionID, Role: role, Content: content}
	if err := s.sessionRepo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages 按创建时间升序返回完整对话记录。
func (s *sessionService) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	return s.sessionRepo.ListMessages(ctx, sessionID)
}

// DeleteSession 删除会话及其全部消息。
func (s *sessionService) DeleteSession(ctx context.Context, sessionID, requestingUserID string) error {
	if requestingUserID == "" {
		return apperr.New(apperr.KindUnauthorized, "Unauthorized")
	}
	if err := s.sessionRepo.DeleteOwned(ctx, sessionID, requestingUserID); err != nil {
		return err
	}
	log.Infof("[SessionService] user %s deleted session %s", requestingUserID, sessionID)
	return nil
}

// ClearAllSessions 删除用户的全部会话。未登录时在访问存储之前直接返回 Unauthorized。
func (s *sessionService) ClearAllSessions(ctx context.Context, requestingUserID *string) (int64, error) {
	userID := normalizeUserID(requestingUserID)
	if userID == nil {
		return 0, apperr.New(apperr.KindUnauthorized, "Unauthorized")
	}
	n, err := s.sessionRepo.DeleteAllByUser(ctx, *userID)
	if err != nil {
		return 0, err
	}
	log.Infof("[SessionService] user %s cleared %d sessions", *userID, n)
	return n, nil
}

// canAccess 匿名会话对任何调用方开放；有主会话只对其所有者开放。
func canAccess(session *model.ChatSession, userID *string) bool {
	if session.UserID == nil {
		return true
	}
	return userID != nil && session.OwnedBy(*userID)
}

func normalizeUserID(userID *string) *string {
	if userID == nil || strings.TrimSpace(*userID) == "" {
		return nil
	}
	return userID
}
