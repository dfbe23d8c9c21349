package preferences

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCompleted_DefaultsToHidden(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/todo/", nil)
	assert.False(t, ShowCompleted(req, 1))
}

func TestShowCompleted_IsKeyedByAccount(t *testing.T) {
	rec := httptest.NewRecorder()
	SetShowCompleted(rec, 1, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "show_completed_1", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/todo/", nil)
	req.AddCookie(cookies[0])
	assert.True(t, ShowCompleted(req, 1))
	assert.False(t, ShowCompleted(req, 2), "another account on the same browser keeps its own preference")
}

func TestShowCompleted_Garbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/todo/", nil)
	req.AddCookie(&http.Cookie{Name: "show_completed_1", Value: "maybe"})
	assert.False(t, ShowCompleted(req, 1))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"on", "true", "True", "1", "yes"} {
		assert.True(t, ParseBool(v), v)
	}
	for _, v := range []string{"", "off", "false", "0", "None", "maybe"} {
		assert.False(t, ParseBool(v), v)
	}
}
