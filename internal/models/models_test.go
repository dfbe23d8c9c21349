package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionValid(t *testing.T) {
	now := time.Now()
	var nilSession *Session

	assert.False(t, nilSession.Valid(now))
	assert.False(t, (&Session{UserID: 0, ExpiresAt: now.Add(time.Hour)}).Valid(now))
	assert.False(t, (&Session{UserID: 1, ExpiresAt: now.Add(-time.Second)}).Valid(now))
	assert.True(t, (&Session{UserID: 1, ExpiresAt: now.Add(time.Hour)}).Valid(now))
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 1, 2, 5)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, 2, p.NextPage())

	empty := NewPage[int](nil, 2, 10, 0)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.True(t, empty.HasPrev())
	assert.False(t, empty.HasNext())
}
