package repository

import (
	"context"
	"errors"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 定义了文档元数据的持久化操作。
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindAll(ctx context.Context) ([]model.Document, error)
	FindByID(ctx context.Context, id string) (*model.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return persistenceErr("create document", err)
	}
	return nil
}

// FindAll 按创建时间倒序返回全部文档。
func (r *documentRepository) FindAll(ctx context.Context) ([]model.Document, error) {
	docs := make([]model.Document, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, persistenceErr("list documents", err)
	}
	return docs, nil
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Document not found")
		}
		return nil, persistenceErr("find document", err)
	}
	return &doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{})
	if res.Error != nil {
		return persistenceErr("delete document", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Document not found")
	}
	return nil
}
