// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository 定义了会话及其消息的持久化操作。
// 所有多步写操作都在单个事务内完成。
type SessionRepository interface {
	Create(ctx context.Context, session *model.ChatSession) error
	FindByID(ctx context.Context, id string) (*model.ChatSession, error)
	// UpdateTitleIfDefault 仅当标题仍为占位标题时更新，返回是否发生了更新。
	UpdateTitleIfDefault(ctx context.Context, id, title string) (bool, error)
	// ListByUser 返回用户的会话，按更新时间倒序，每个会话只带最近一条消息。
	ListByUser(ctx context.Context, userID string) ([]model.ChatSession, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	// DeleteOwned 删除属于 userID 的会话及其消息。
	DeleteOwned(ctx context.Context, id, userID string) error
	// DeleteAllByUser 删除用户的全部会话及消息，返回删除的会话数。
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return persistenceErr("create session", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "session not found")
		}
		return nil, persistenceErr("find session", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateTitleIfDefault(ctx context.Context, id, title string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND title = ?", id, model.DefaultSessionTitle).
		Update("title", title)
	if res.Error != nil {
		return false, persistenceErr("update session title", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID string) ([]model.ChatSession, error) {
	db := r.db.WithContext(ctx)

	var sessions []model.ChatSession
	err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, persistenceErr("list sessions", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
	}

	// 每个会话只取最新一条消息。Preload + Limit 会限制整个结果集而不是每个会话，
	// 所以这里用关联子查询一次取回。
	latestID := db.Table("messages AS m2").
		Select("m2.id").
		Where("m2.chat_session_id = m.chat_session_id").
		Order("m2.created_at DESC").
		Order("m2.id DESC").
		Limit(1)

	var latest []model.Message
	err = db.Table("messages AS m").
		Select("m.*").
		Where("m.chat_session_id IN ?", ids).
		Where("m.id = (?)", latestID).
		Find(&latest).Error
	if err != nil {
		return nil, persistenceErr("load latest messages", err)
	}

	bySession := make(map[string]model.Message, len(latest))
	for _, m := range latest {
		bySession[m.ChatSessionID] = m
	}
	for i := range sessions {
		if m, ok := bySession[sessions[i].ID]; ok {
			sessions[i].Messages = []model.Message{m}
		} else {
			sessions[i].Messages = []model.Message{}
		}
	}
	return sessions, nil
}

// AppendMessage 在事务中锁定会话行后插入消息，并刷新会话的更新时间。
// 会话不存在（包括已被并发删除）时返回 NotFound，不会留下孤儿消息。
func (r *sessionRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ChatSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", msg.ChatSessionID).
			First(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "session not found")
			}
			return persistenceErr("lock session", err)
		}

		if err := tx.Create(msg).Error; err != nil {
			return persistenceErr("create message", err)
		}

		err = tx.Model(&model.ChatSession{}).
			Where("id = ?", msg.ChatSessionID).
			UpdateColumn("updated_at", msg.CreatedAt).Error
		if err != nil {
			return persistenceErr("touch session", err)
		}
		return nil
	})
}

func (r *sessionRepository) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := r.db.WithContext(ctx).
		Where("chat_session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, persistenceErr("list messages", err)
	}
	return messages, nil
}

func (r *sessionRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ChatSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&session).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return persistenceErr("find session", err)
		}
		// 不存在和不属于当前用户返回同一个错误
		if err != nil || !session.OwnedBy(userID) {
			return apperr.New(apperr.KindNotFoundOrUnauthorized, "Session not found or unauthorized")
		}

		if err := tx.Where("chat_session_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return persistenceErr("delete messages", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.ChatSession{}).Error; err != nil {
			return persistenceErr("delete session", err)
		}
		return nil
	})
}

func (r *sessionRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&model.ChatSession{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Pluck("id", &ids).Error
		if err != nil {
			return persistenceErr("lock sessions", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("chat_session_id IN ?", ids).Delete(&model.Message{}).Error; err != nil {
			return persistenceErr("delete messages", err)
		}
		res := tx.Where("id IN ? AND user_id = ?", ids, userID).Delete(&model.ChatSession{})
		if res.Error != nil {
			return persistenceErr("delete sessions", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func persistenceErr(op string, err error) error {
	return apperr.Wrap(apperr.KindPersistence, op, err)
}
