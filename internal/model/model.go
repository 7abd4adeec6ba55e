// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID 生成 UUIDv7 主键。v7 按时间递增，同一毫秒内的插入顺序也能通过 ID 比较恢复。
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// AutoMigrate 创建或更新所有表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &ChatSession{}, &Message{}, &Document{})
}
