package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), Identity{UserID: "u-1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", id.UserID)

	uid := UserID(ctx)
	require.NotNil(t, uid)
	assert.Equal(t, "u-1", *uid)
}

func TestAnonymous(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, UserID(context.Background()))

	// 空 ID 视为匿名
	_, ok = FromContext(NewContext(context.Background(), Identity{}))
	assert.False(t, ok)

	// 其他包用同名字符串键写入的值不会被当作身份
	type otherKey string
	forged := context.WithValue(context.Background(), otherKey(GinKey), Identity{UserID: "admin"})
	_, ok = FromContext(forged)
	assert.False(t, ok)
}
