package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	AddFlash(rec, req, FlashSuccess, "first")
	AddFlash(rec, req, FlashDanger, "second")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(last)
	rec = httptest.NewRecorder()
	flashes := PopFlashes(rec, next)
	assert.Equal(t, []Flash{{FlashSuccess, "first"}, {FlashDanger, "second"}}, flashes)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestPopFlashes_IgnoresGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: "%%%"})
	assert.Empty(t, PopFlashes(httptest.NewRecorder(), req))
}

func TestRender(t *testing.T) {
	rd, err := NewRenderer()
	require.NoError(t, err)

	for _, page := range []string{"index.html", "login.html", "todos.html", "todo.html", "404.html", "500.html"} {
		assert.Contains(t, rd.pages, page)
	}

	req := httptest.NewRequest(http.MethodGet, "/todo/1", nil)
	req = req.WithContext(auth.WithSession(req.Context(), &models.Session{UserID: 1, Username: "alice"}))
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: encodeForTest(t, []Flash{{FlashSuccess, "Saved <now>"}})})
	rec := httptest.NewRecorder()

	rd.Render(rec, req, http.StatusOK, "todo.html", "Todo", models.Todo{ID: 1, Description: "<b>milk</b>"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Todo #1")
	assert.Contains(t, body, "&lt;b&gt;milk&lt;/b&gt;", "descriptions are escaped")
	assert.Contains(t, body, "Saved &lt;now&gt;")
	assert.Contains(t, body, "Logout (alice)")
}

func TestRender_UnknownPage(t *testing.T) {
	rd, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rd.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope.html", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func encodeForTest(t *testing.T, flashes []Flash) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	for _, f := range flashes {
		AddFlash(rec, req, f.Category, f.Message)
	}
	cookies := rec.Result().Cookies()
	return cookies[len(cookies)-1].Value
}
