package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, repo SessionRepository, userID *string, title string) *model.ChatSession {
	t.Helper()
	s := &model.ChatSession{UserID: userID, Title: title}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func appendMsg(t *testing.T, repo SessionRepository, sessionID, role, content string) *model.Message {
	t.Helper()
	m := &model.Message{ChatSessionID: sessionID, Role: role, Content: content}
	require.NoError(t, repo.AppendMessage(context.Background(), m))
	return m
}

func TestSessionRepository_CreateDefaultsTitle(t *testing.T) {
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, nil, "")

	got, err := repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSessionTitle, got.Title)
	assert.Nil(t, got.UserID)
}

func TestSessionRepository_FindByIDNotFound(t *testing.T) {
	repo := NewSessionRepository(testutil.NewDB(t))
	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSessionRepository_UpdateTitleIfDefaultOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, nil, "")

	updated, err := repo.UpdateTitleIfDefault(ctx, s.ID, "first...")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateTitleIfDefault(ctx, s.ID, "second...")
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "first...", got.Title)
}

func TestSessionRepository_MessagesAscending(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, nil, "")

	want := []string{"one", "two", "three", "four", "five"}
	for i, c := range want {
		role := model.MessageRoleUser
		if i%2 == 1 {
			role = model.MessageRoleAssistant
		}
		appendMsg(t, repo, s.ID, role, c)
	}

	msgs, err := repo.ListMessages(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(want))
	for i := range want {
		assert.Equal(t, want[i], msgs[i].Content)
		if i > 0 {
			assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
}

func TestSessionRepository_ListMessagesUnknownSessionIsEmpty(t *testing.T) {
	repo := NewSessionRepository(testutil.NewDB(t))
	msgs, err := repo.ListMessages(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestSessionRepository_AppendToMissingSession(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)

	err := repo.AppendMessage(ctx, &model.Message{ChatSessionID: "missing", Role: "user", Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionRepository_ListByUserOwnedOnlyWithLatestMessage(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	alice, bob := testutil.StrPtr("alice"), testutil.StrPtr("bob")

	older := newSession(t, repo, alice, "older")
	appendMsg(t, repo, older.ID, model.MessageRoleUser, "old question")
	appendMsg(t, repo, older.ID, model.MessageRoleAssistant, "old answer")

	empty := newSession(t, repo, alice, "")

	newer := newSession(t, repo, alice, "newer")
	appendMsg(t, repo, newer.ID, model.MessageRoleUser, "new question")
	appendMsg(t, repo, newer.ID, model.MessageRoleAssistant, "new answer")

	newSession(t, repo, bob, "bob's")
	newSession(t, repo, nil, "anonymous")

	sessions, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, newer.ID, sessions[0].ID)
	require.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, "new answer", sessions[0].Messages[0].Content)

	// empty 在 older 的最后一条消息之后创建，因此排在 older 前面
	assert.Equal(t, empty.ID, sessions[1].ID)
	assert.Empty(t, sessions[1].Messages)

	assert.Equal(t, older.ID, sessions[2].ID)
	require.Len(t, sessions[2].Messages, 1)
	assert.Equal(t, "old answer", sessions[2].Messages[0].Content)
}

func TestSessionRepository_DeleteOwnedCascades(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	alice := testutil.StrPtr("alice")

	s := newSession(t, repo, alice, "")
	appendMsg(t, repo, s.ID, model.MessageRoleUser, "a")
	appendMsg(t, repo, s.ID, model.MessageRoleAssistant, "b")
	other := newSession(t, repo, alice, "")
	appendMsg(t, repo, other.ID, model.MessageRoleUser, "keep me")

	require.NoError(t, repo.DeleteOwned(ctx, s.ID, "alice"))

	_, err := repo.FindByID(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	msgs, err := repo.ListMessages(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	var orphans int64
	require.NoError(t, db.Model(&model.Message{}).Where("chat_session_id = ?", s.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	kept, err := repo.ListMessages(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestSessionRepository_DeleteOwnedMergesNotFoundAndForeign(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, testutil.StrPtr("alice"), "")
	anon := newSession(t, repo, nil, "")

	errMissing := repo.DeleteOwned(ctx, "missing", "alice")
	errForeign := repo.DeleteOwned(ctx, s.ID, "bob")
	errAnon := repo.DeleteOwned(ctx, anon.ID, "alice")

	for _, err := range []error{errMissing, errForeign, errAnon} {
		assert.ErrorIs(t, err, apperr.ErrNotFoundOrUnauthorized)
	}
	assert.Equal(t, errMissing.Error(), errForeign.Error())

	_, err := repo.FindByID(ctx, s.ID)
	assert.NoError(t, err, "foreign delete must not remove the session")
}

func TestSessionRepository_DeleteAllByUserLeavesOthersIntact(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	alice, bob := testutil.StrPtr("alice"), testutil.StrPtr("bob")

	for i := 0; i < 3; i++ {
		s := newSession(t, repo, alice, "")
		appendMsg(t, repo, s.ID, model.MessageRoleUser, "alice msg")
	}
	b := newSession(t, repo, bob, "")
	appendMsg(t, repo, b.ID, model.MessageRoleUser, "bob msg")
	anon := newSession(t, repo, nil, "")
	appendMsg(t, repo, anon.ID, model.MessageRoleUser, "anon msg")

	n, err := repo.DeleteAllByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	left, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, left)

	bobs, err := repo.ListByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	bobMsgs, err := repo.ListMessages(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, bobMsgs, 1)

	var total int64
	require.NoError(t, db.Model(&model.Message{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)

	n, err = repo.DeleteAllByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// 删除与追加并发执行时，追加要么在删除前提交（随后被级联删除），
// 要么看到会话已不存在并返回 NotFound，任何顺序下都不能留下孤儿消息。
func TestSessionRepository_ConcurrentDeleteAndAppendLeaveNoOrphans(t *testing.T) {
	deleters := map[string]func(ctx context.Context, repo SessionRepository, id string) error{
		"delete one": func(ctx context.Context, repo SessionRepository, id string) error {
			return repo.DeleteOwned(ctx, id, "alice")
		},
		"clear all": func(ctx context.Context, repo SessionRepository, id string) error {
			_, err := repo.DeleteAllByUser(ctx, "alice")
			return err
		},
	}
	for name, deleteFn := range deleters {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			db := testutil.NewDB(t)
			repo := NewSessionRepository(db)
			s := newSession(t, repo, testutil.StrPtr("alice"), "")
			appendMsg(t, repo, s.ID, model.MessageRoleUser, "first")

			const writers = 16
			start := make(chan struct{})
			appendErrs := make([]error, writers)
			var deleteErr error
			var wg sync.WaitGroup

			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					appendErrs[i] = repo.AppendMessage(ctx, &model.Message{
						ChatSessionID: s.ID,
						Role:          model.MessageRoleAssistant,
						Content:       fmt.Sprintf("reply %d", i),
					})
				}(i)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				deleteErr = deleteFn(ctx, repo, s.ID)
			}()
			close(start)
			wg.Wait()

			require.NoError(t, deleteErr)
			for _, err := range appendErrs {
				if err != nil {
					assert.ErrorIs(t, err, apperr.ErrNotFound)
				}
			}

			var orphans int64
			require.NoError(t, db.Model(&model.Message{}).Where("chat_session_id = ?", s.ID).Count(&orphans).Error)
			assert.Zero(t, orphans)
			_, err := repo.FindByID(ctx, s.ID)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

// 占位标题只能被替换一次：并发的条件更新中只有一个生效。
func TestSessionRepository_ConcurrentTitleUpdateFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, nil, "")

	const writers = 8
	start := make(chan struct{})
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := repo.UpdateTitleIfDefault(ctx, s.ID, fmt.Sprintf("title %d...", i))
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.DefaultSessionTitle, got.Title)
}

func TestSessionRepository_ListByUserHonoursCancellation(t *testing.T) {
	repo := NewSessionRepository(testutil.NewDB(t))
	s := newSession(t, repo, testutil.StrPtr("alice"), "")
	appendMsg(t, repo, s.ID, model.MessageRoleUser, "hi")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.ListByUser(ctx, "alice")
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	sessions, err := repo.ListByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, "hi", sessions[0].Messages[0].Content)
}
