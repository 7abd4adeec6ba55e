package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultSessionTitle 是会话收到第一条用户消息之前的占位标题。
const DefaultSessionTitle = "New Chat"

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// ChatSession 对应 chat_sessions 表。UserID 为空表示匿名会话。
// 删除会话时级联删除其全部消息。
type ChatSession struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null;default:'New Chat'" json:"title"`
	UserID    *string   `gorm:"type:varchar(36);index" json:"userId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
	Messages  []Message `gorm:"foreignKey:ChatSessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.Title == "" {
		s.Title = DefaultSessionTitle
	}
	return nil
}

// OwnedBy 判断会话是否属于 userID。匿名会话不属于任何人。
func (s *ChatSession) OwnedBy(userID string) bool {
	return s.UserID != nil && userID != "" && *s.UserID == userID
}

// Message 对应 messages 表，创建后不可修改。
type Message struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Role          string    `gorm:"type:varchar(16);not null" json:"role"`
	ChatSessionID string    `gorm:"type:varchar(36);not null;index" json:"chatSessionId"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}
