// Package identity 保存经过验证的请求身份。
//
// 身份只由 middleware.Identity 写入，下游直接信任，不再重复校验 token。
package identity

import "context"

// Identity 是已通过验证的调用方。
type Identity struct {
	UserID string
}

type ctxKey struct{}

// GinKey 是身份在 gin.Context 中的键。
const GinKey = "identity"

// NewContext 返回携带 id 的新 context。
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 取出请求身份，匿名请求返回 false。
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserID 返回调用方的用户 ID，匿名时返回 nil。
func UserID(ctx context.Context) *string {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	userID := id.UserID
	return &userID
}
