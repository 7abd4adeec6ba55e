// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"context"
	"net/http"
	"time"

	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/metrics"
	"chatdesk-go/pkg/log"
	"chatdesk-go/pkg/token"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
)

const (
	// CookieName 是保存身份 token 的 cookie。
	CookieName = "token"
	// HeaderUserID 是保留的请求头名，客户端传入的值一律丢弃。
	HeaderUserID = "X-User-Id"
)

// RevocationChecker 查询 token 是否已在登出时被拉黑。
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// IdentityOptions 配置身份中间件。
type IdentityOptions struct {
	// Paths 是需要解析身份的路径模式（doublestar 语法）。
	Paths        []string
	CookieSecure bool
	// Revocations 为 nil 时不检查黑名单。
	Revocations RevocationChecker
	// Now 用于判断过期，为 nil 时使用 time.Now。
	Now func() time.Time
}

// Identity 创建一个全局中间件，把 token cookie 解析为可信的请求身份。
// 解析失败只会清除 cookie 并按匿名继续，从不中止请求。
func Identity(jwtManager *token.JWTManager, opts IdentityOptions) gin.HandlerFunc {
	patterns := make([]string, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if !doublestar.ValidatePattern(p) {
			log.Warnf("[Identity] ignoring invalid path pattern %q", p)
			continue
		}
		patterns = append(patterns, p)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		c.Request.Header.Del(HeaderUserID)

		if !matchAny(patterns, c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, err := c.Cookie(CookieName)
		if err != nil || raw == "" {
			metrics.IdentityResolutions.WithLabelValues(metrics.IdentityNone).Inc()
			c.Next()
			return
		}

		claims, err := jwtManager.Verify(raw)
		switch {
		case err != nil:
			log.Debugw("identity cookie rejected", "path", c.Request.URL.Path, "error", err)
			reject(c, metrics.IdentityInvalid, opts.CookieSecure)
			return
		case claims.Expired(now()):
			reject(c, metrics.IdentityExpired, opts.CookieSecure)
			return
		}

		if opts.Revocations != nil {
			revoked, err := opts.Revocations.IsRevoked(c.Request.Context(), raw)
			if err != nil {
				log.Warnf("[Identity] revocation lookup failed, accepting token: %v", err)
			} else if revoked {
				reject(c, metrics.IdentityRevoked, opts.CookieSecure)
				return
			}
		}

		id := identity.Identity{UserID: claims.UserID}
		c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), id))
		c.Set(identity.GinKey, id)
		metrics.IdentityResolutions.WithLabelValues(metrics.IdentityValid).Inc()
		c.Next()
	}
}

// reject 清除 cookie 后以匿名身份继续处理请求。
func reject(c *gin.Context, outcome string, secure bool) {
	metrics.IdentityResolutions.WithLabelValues(outcome).Inc()
	ClearTokenCookie(c, secure)
	c.Next()
}

// SetTokenCookie 写入身份 cookie。
func SetTokenCookie(c *gin.Context, value string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie 让浏览器立即删除身份 cookie。
func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
