package model

import (
	"time"

	"gorm.io/gorm"
)

// DocumentStatusActive 是新登记文档的默认状态。
const DocumentStatusActive = "Active"

// Document 对应 documents 表，记录上传文件的元数据。文档不归属于任何用户。
type Document struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Path      string    `gorm:"type:varchar(512);not null" json:"path"`
	Size      int64     `gorm:"not null" json:"size"`
	Type      string    `gorm:"type:varchar(255)" json:"type"`
	Status    string    `gorm:"type:varchar(32);not null;default:'Active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	if d.Status == "" {
		d.Status = DocumentStatusActive
	}
	return nil
}
