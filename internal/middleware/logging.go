package middleware

import (
	"strconv"
	"time"

	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/metrics"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 是一个 Gin 中间件，记录请求日志并更新 HTTP 指标。请求体与响应体不写入日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		userID := ""
		if id, ok := identity.FromContext(c.Request.Context()); ok {
			userID = id.UserID
		}

		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(statusCode)).Inc()
		metrics.HTTPLatency.WithLabelValues(route, c.Request.Method).Observe(latency.Seconds())

		log.Infow("HTTP Request Log",
			"statusCode", statusCode,
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"userId", userID,
		)
	}
}
