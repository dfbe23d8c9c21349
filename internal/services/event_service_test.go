package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/ender-todo/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLoginAndRecentEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceSess := f.user(t, "alice", "secret")
	bob, bobSess := f.user(t, "bob", "hunter2")

	require.NoError(t, f.events.RecordLogin(ctx, alice))
	require.NoError(t, f.events.RecordLogin(ctx, bob))

	events, err := f.events.GetRecentEvents(ctx, aliceSess, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventLogin, events[0].Type)
	assert.Equal(t, alice.ID, events[0].UserID)
	assert.Nil(t, events[0].TodoID)
	assert.NotEmpty(t, events[0].ID)

	events, err = f.events.GetRecentEvents(ctx, bobSess, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, bob.ID, events[0].UserID)
}

func TestGetRecentEvents_Limit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, sess := f.user(t, "alice", "secret")
	for i := 0; i < 5; i++ {
		require.NoError(t, f.events.RecordLogin(ctx, alice))
	}

	events, err := f.events.GetRecentEvents(ctx, sess, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestPruneOlderThan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.user(t, "alice", "secret")

	old := time.Now().Add(-48 * time.Hour).UTC().Format(sqliteTimeLayout)
	_, err := f.db.Exec(`INSERT INTO events (id, user_id, type, level, message, created_at) VALUES ('old', ?, 'auth.login', 'info', 'old', ?)`, alice.ID, old)
	require.NoError(t, err)
	require.NoError(t, f.events.RecordLogin(ctx, alice))

	n, err := f.events.PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, dbtest.Count(t, f.db, "events"))
}

func TestPublish_OnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, sess := f.user(t, "alice", "secret")

	require.NoError(t, f.events.RecordLogin(ctx, alice))
	todo := f.todo(t, sess, "buy milk")
	_, err := f.todos.UpdateTodo(ctx, sess, todo.ID, SetCompleted(true))
	require.NoError(t, err)

	require.Len(t, f.pub.events, 3)
	assert.Equal(t, EventLogin, f.pub.events[0].Type)
	assert.Equal(t, EventTodoCreate, f.pub.events[1].Type)
	assert.Equal(t, EventTodoComplete, f.pub.events[2].Type)
	assert.Equal(t, todo.ID, *f.pub.events[2].TodoID)
	assert.False(t, f.pub.events[2].CreatedAt.IsZero())

	_, err = f.todos.UpdateTodo(ctx, sess, todo.ID+100, Delete())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.todos.CreateTodo(ctx, sess, "  ")
	require.ErrorIs(t, err, ErrValidation)
	assert.Len(t, f.pub.events, 3, "failed operations publish nothing")
}

func TestPublish_NilPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewEventService(f.db, nil)
	alice, _ := f.user(t, "alice", "secret")
	assert.NotPanics(t, func() { require.NoError(t, svc.RecordLogin(context.Background(), alice)) })
}
