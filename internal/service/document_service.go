package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/repository"
	"chatdesk-go/pkg/events"
	"chatdesk-go/pkg/log"
)

// uploadPrefix 是文档登记路径和对象名的公共前缀。
const uploadPrefix = "uploads"

// ObjectStore 保存上传文件的内容。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectName string) error
}

// EventPublisher 发布文档事件。
type EventPublisher interface {
	Publish(ctx context.Context, evt events.DocumentEvent) error
}

// DocumentService 接口定义了文档登记相关的业务操作。
type DocumentService interface {
	RegisterDocument(ctx context.Context, name, path string, size int64, mimeType string) (*model.Document, error)
	UploadDocument(ctx context.Context, name string, content io.Reader, size int64, mimeType string) (*model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type documentService struct {
	docRepo   repository.DocumentRepository
	store     ObjectStore
	publisher EventPublisher
}

// NewDocumentService 创建一个新的 DocumentService 实例。store 和 publisher 可以为 nil。
func NewDocumentService(docRepo repository.DocumentRepository, store ObjectStore, publisher EventPublisher) DocumentService {
	return &documentService{docRepo: docRepo, store: store, publisher: publisher}
}

// RegisterDocument 登记文档元数据，不检查内容是否已写入存储。
func (s *documentService) RegisterDocument(ctx context.Context, name, path string, size int64, mimeType string) (*model.Document, error) {
	return s.register(ctx, &model.Document{Name: name, Path: path, Size: size, Type: mimeType})
}

// UploadDocument 在启用对象存储时先写入内容，再登记元数据。
// 对象名带上文档 ID，同名文件互不覆盖。
func (s *documentService) UploadDocument(ctx context.Context, name string, content io.Reader, size int64, mimeType string) (*model.Document, error) {
	name = sanitizeFileName(name)
	if name == "" {
		return nil, apperr.New(apperr.KindBadRequest, "No file uploaded")
	}
	id := model.NewID()
	objectName := path.Join(uploadPrefix, id, name)
	if s.store != nil {
		if err := s.store.Put(ctx, objectName, content, size, mimeType); err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, "store document", err)
		}
	}
	doc, err := s.register(ctx, &model.Document{ID: id, Name: name, Path: "/" + objectName, Size: size, Type: mimeType})
	if err != nil && s.store != nil {
		if rmErr := s.store.Remove(ctx, objectName); rmErr != nil {
			log.Warnf("[DocumentService] failed to remove orphan object %s: %v", objectName, rmErr)
		}
	}
	return doc, err
}

func (s *documentService) register(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if doc.Name == "" {
		return nil, apperr.New(apperr.KindBadRequest, "document name is required")
	}
	doc.Status = model.DocumentStatusActive
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.DocumentEvent{
		Type:       events.DocumentRegistered,
		DocumentID: doc.ID,
		Name:       doc.Name,
		Path:       doc.Path,
		Size:       doc.Size,
		MimeType:   doc.Type,
		OccurredAt: doc.CreatedAt,
	})
	return doc, nil
}

// ListDocuments 按创建时间倒序返回全部文档。
func (s *documentService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.docRepo.FindAll(ctx)
}

// DeleteDocument 删除文档记录，对象存储中的内容尽力删除。
func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.store != nil {
		objectName := strings.TrimPrefix(doc.Path, "/")
		if err := s.store.Remove(ctx, objectName); err != nil {
			log.Warnf("[DocumentService] failed to remove object %s: %v", objectName, err)
		}
	}
	s.publish(ctx, events.DocumentEvent{
		Type:       events.DocumentDeleted,
		DocumentID: doc.ID,
		Name:       doc.Name,
		Path:       doc.Path,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// publish 发送失败只记录日志，不影响已提交的数据库操作。
func (s *documentService) publish(ctx context.Context, evt events.DocumentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warnf("[DocumentService] failed to publish %s for %s: %v", evt.Type, evt.DocumentID, err)
	}
}

// sanitizeFileName 去掉客户端文件名中的目录部分。
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
