package handler

import (
	"net/http"

	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理文档上传登记、列表与删除的请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload 接收 multipart 表单中的 file 字段并登记文档。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Upload: failed to open multipart file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := h.docService.UploadDocument(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, mimeType)
	if err != nil {
		writeError(c, err, "Upload failed")
		return
	}
	log.Infof("Document '%s' registered, id=%s", doc.Name, doc.ID)
	c.JSON(http.StatusOK, doc)
}

// List 返回全部文档，最新的在前。
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docService.ListDocuments(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Delete 删除一条文档记录。
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.docService.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
