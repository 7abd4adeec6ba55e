// Package events defines the payloads published to Kafka.
package events

import "time"

// 文档事件类型
const (
	DocumentRegistered = "document.registered"
	DocumentDeleted    = "document.deleted"
)

// DocumentEvent 在文档登记或删除后发布。
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name,omitempty"`
	Path       string    `json:"path,omitempty"`
	Size       int64     `json:"size,omitempty"`
	MimeType   string    `json:"mimeType,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
