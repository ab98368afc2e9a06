package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newStore() *auth.CookieStore {
	return auth.NewCookieStore(config.AuthConfig{SessionSecret: "test-secret", CookieName: "inkcopilot_auth", CookieMaxAge: time.Hour, CookieSecure: true}, nil)
}

func cookieFor(t *testing.T, exp time.Time) *http.Cookie {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	raw, err := newStore().Encode(auth.Session{Token: tok, User: apiclient.AuthUser{ID: "u1"}})
	require.NoError(t, err)
	return &http.Cookie{Name: "inkcopilot_auth", Value: raw}
}

func guardedRouter(store *auth.CookieStore) *gin.Engine {
	r := gin.New()
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": GetSession(c).Owner()})
	}
	r.GET("/dashboard/*rest", SessionRequired(store), ok)
	r.GET("/api/v1/dashboard/stats", SessionRequired(store), ok)
	r.GET("/login", GuestOnly(store), func(c *gin.Context) { c.String(http.StatusOK, "login") })
	return r
}

func TestSessionRequiredRedirectsPages(t *testing.T) {
	r := guardedRouter(newStore())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/posts?status=draft", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?from="+url.QueryEscape("/dashboard/posts?status=draft"), w.Header().Get("Location"))
}

func TestSessionRequiredRejectsAPI(t *testing.T) {
	r := guardedRouter(newStore())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestSessionRequiredClearsExpiredCookie(t *testing.T) {
	r := guardedRouter(newStore())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	req.AddCookie(cookieFor(t, time.Now().Add(-time.Minute)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestSessionRequiredPassesSession(t *testing.T) {
	r := guardedRouter(newStore())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	req.AddCookie(cookieFor(t, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"owner":"u1"}`, w.Body.String())
}

func TestGuestOnly(t *testing.T) {
	r := guardedRouter(newStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookieFor(t, time.Now().Add(time.Hour)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRateLimiterWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewInMemoryRateLimiter(2, time.Minute, clock)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	clock.Advance(time.Minute)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.Equal(t, 1, l.Sweep(), "5.6.7.8 has gone quiet")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute, clockwork.NewFakeClock())
	r := gin.New()
	r.Use(RateLimit(l))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestLogSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLog(zerolog.Nop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
}
