// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/identity"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const internalServerError = "Internal Server Error"

// statusFor 把错误类别映射为 HTTP 状态码。
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound, apperr.KindNotFoundOrUnauthorized:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError 输出 {"error": msg}。5xx 只返回 fallback，不暴露内部错误。
func writeError(c *gin.Context, err error, fallback string) {
	status := statusFor(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		if fallback == "" {
			fallback = internalServerError
		}
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		msg = appErr.Msg
	}
	c.JSON(status, gin.H{"error": msg})
}

// requireUserID 返回当前用户 ID。匿名请求直接写入 401 并返回 false。
func requireUserID(c *gin.Context) (string, bool) {
	id, ok := identity.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return id.UserID, true
}

// envelope 是认证与管理接口使用的统一响应格式。
func envelope(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": message,
		"data":    data,
	})
}
