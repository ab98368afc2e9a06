package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return s
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{SessionSecret: "test-secret", CookieName: "inkcopilot_auth", CookieMaxAge: 7 * 24 * time.Hour, CookieSecure: true}
}

func TestParseToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := signToken(t, jwt.MapClaims{"userId": 42, "email": "a@b.co", "exp": now.Add(time.Hour).Unix()})

	claims, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Identity())
	assert.False(t, claims.Expired(now))
	assert.True(t, claims.Expired(now.Add(time.Hour)))

	_, err = ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsIdentityFallbacks(t *testing.T) {
	claims, err := ParseToken(signToken(t, jwt.MapClaims{"sub": "u-7"}))
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.Identity())
	assert.False(t, claims.Expired(time.Now()), "no exp means no local expiry")

	claims, err = ParseToken(signToken(t, jwt.MapClaims{"email": "x@y.z"}))
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", claims.Identity())
}

func TestIdentify(t *testing.T) {
	s := Session{Token: signToken(t, jwt.MapClaims{"sub": "u-9"}), User: apiclient.AuthUser{Email: "Jane@Example.com"}}
	assert.Equal(t, "u-9", identify(s))

	s.User.ID = "abc"
	assert.Equal(t, "abc", identify(s))

	s = Session{Token: "opaque", User: apiclient.AuthUser{Email: "Jane@Example.com"}}
	assert.Equal(t, "jane@example.com", identify(s))
}

func TestCookieStoreRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	store := NewCookieStore(testAuthConfig(), clock)
	tok := signToken(t, jwt.MapClaims{"sub": "u1", "exp": clock.Now().Add(time.Hour).Unix()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	require.NoError(t, store.Save(c, Session{Token: tok, User: apiclient.AuthUser{ID: "u1", Email: "a@b.co"}}))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "inkcopilot_auth", ck.Name)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.Secure)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, 7*24*3600, ck.MaxAge)

	load := func() (*Session, bool) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		c.Request.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		return store.Load(c)
	}
	sess, ok := load()
	require.True(t, ok)
	assert.Equal(t, tok, sess.Token)
	assert.Equal(t, "a@b.co", sess.User.Email)
	assert.Equal(t, "u1", sess.Owner())

	clock.Advance(time.Hour)
	_, ok = load()
	assert.False(t, ok, "expired tokens count as signed out")
}

func TestCookieStoreRejectsGarbage(t *testing.T) {
	store := NewCookieStore(testAuthConfig(), nil)
	for _, v := range []string{"", "{", url.QueryEscape(`{"token":"nope"}`), "a.b.c"} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if v != "" {
			c.Request.AddCookie(&http.Cookie{Name: "inkcopilot_auth", Value: v})
		}
		_, ok := store.Load(c)
		assert.False(t, ok, v)
	}
}

func TestCookieStoreRejectsForgedSessions(t *testing.T) {
	store := NewCookieStore(testAuthConfig(), nil)
	apiToken := signToken(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()})

	forged := NewCookieStore(config.AuthConfig{SessionSecret: "attacker-key", CookieMaxAge: time.Hour}, nil)
	raw, err := forged.Encode(Session{Token: apiToken, User: apiclient.AuthUser{ID: "42"}})
	require.NoError(t, err)
	_, err = store.Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "signed with another key")

	// the old unsigned JSON form
	b, err := json.Marshal(map[string]any{"token": apiToken, "user": map[string]string{"id": "42"}})
	require.NoError(t, err)
	_, err = store.Decode(string(b))
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"tok": apiToken, "sub": "42", "iss": sessionIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = store.Decode(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	raw, err = store.Encode(Session{Token: apiToken, User: apiclient.AuthUser{ID: "42"}})
	require.NoError(t, err)
	parts := strings.Split(raw, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tampered := strings.Replace(string(payload), `"sub":"42"`, `"sub":"7"`, 1)
	require.NotEqual(t, string(payload), tampered)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))
	_, err = store.Decode(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken, "payload edited after signing")
}

func TestCookieStoreEnvelopeExpires(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg := testAuthConfig()
	cfg.CookieMaxAge = time.Hour
	store := NewCookieStore(cfg, clock)
	raw, err := store.Encode(Session{Token: signToken(t, jwt.MapClaims{"sub": "u1"}), User: apiclient.AuthUser{ID: "u1"}})
	require.NoError(t, err)

	sess, err := store.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.Owner())

	clock.Advance(time.Hour)
	_, err = store.Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCookieStoreNeedsIdentity(t *testing.T) {
	store := NewCookieStore(testAuthConfig(), nil)
	_, err := store.Encode(Session{Token: "opaque"})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestCookieStoreClear(t *testing.T) {
	store := NewCookieStore(testAuthConfig(), nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	store.Clear(c)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}
