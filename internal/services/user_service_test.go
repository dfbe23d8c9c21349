package services

import (
	"context"
	"testing"

	"github.com/isdelr/ender-todo/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())

	var stored string
	require.NoError(t, f.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", u.ID).Scan(&stored))
	assert.NotEqual(t, "secret", stored, "password must be hashed")

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name, username, password string
	}{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "bob", ""},
		{"blank password", "bob", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, dbtest.Count(t, f.db, "users"))
}

func TestCreateUser_DuplicateRollsBack(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice", "secret")

	_, err := f.users.CreateUser(context.Background(), "alice", "other")
	require.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, 1, dbtest.Count(t, f.db, "users"))
}

func TestAuthenticateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.user(t, "alice", "secret")

	u, err := f.users.AuthenticateUser(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)
	assert.Empty(t, u.PasswordHash)

	for _, tc := range []struct{ username, password string }{
		{"aliceXXX", "secret"},
		{"alice", "secretXXX"},
		{"Alice", "secret"},
		{"alice", "secre"},
		{"", ""},
	} {
		_, err := f.users.AuthenticateUser(ctx, tc.username, tc.password)
		require.ErrorIs(t, err, ErrAuthFailure, "%q/%q", tc.username, tc.password)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.GetUserByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDummyHash_BuiltOnce(t *testing.T) {
	first := dummyHash()
	cost, err := bcrypt.Cost(first)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.Same(t, &first[0], &dummyHash()[0], "computed once and reused")
}
