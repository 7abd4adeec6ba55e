// Package testutil 提供测试共用的辅助函数。
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"chatdesk-go/internal/model"
	"chatdesk-go/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 为每个测试创建一个独立的内存 sqlite 库并完成迁移。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// StrPtr 返回 s 的指针。
func StrPtr(s string) *string {
	return &s
}
