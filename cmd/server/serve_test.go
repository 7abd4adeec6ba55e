package main

import (
	"errors"
	"testing"

	"chatdesk-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCloser struct {
	err    error
	closed bool
}

func (c *stubCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloseWithLog(t *testing.T) {
	ok := &stubCloser{}
	assert.NoError(t, closeWithLog("ok", ok))
	assert.True(t, ok.closed)

	failing := &stubCloser{err: errors.New("connection reset")}
	assert.EqualError(t, closeWithLog("redis client", failing), "connection reset")
	assert.True(t, failing.closed)
}

func TestAppClose_ClosesDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	(&app{db: db}).close()
	assert.Error(t, sqlDB.Ping())

	// 未初始化的依赖直接跳过
	(&app{}).close()
}
