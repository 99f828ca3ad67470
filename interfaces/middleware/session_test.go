package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"social-relay/infrastructure/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRouter(t *testing.T, secure bool) (*gin.Engine, *[]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	n := 0
	store := session.NewMemoryStore(session.WithIDGenerator(func() string {
		n++
		return "sess-" + string(rune('0'+n))
	}))
	seen := []string{}
	r := gin.New()
	r.Use(RequestLogger(), Session(NewCookieStore(SessionOptions{Secret: "test-secret-test-secret-32-bytes", Secure: secure}), store))
	r.GET("/whoami", func(c *gin.Context) {
		seen = append(seen, c.GetString(SessionIDKey))
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestSession_MintsAndReusesID(t *testing.T) {
	r, seen := newSessionRouter(t, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.False(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(c)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Empty(t, w2.Result().Cookies())

	assert.Equal(t, []string{"sess-1", "sess-1"}, *seen)
}

func TestSession_InvalidCookieGetsNewID(t *testing.T) {
	r, seen := newSessionRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, []string{"sess-1"}, *seen)
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
