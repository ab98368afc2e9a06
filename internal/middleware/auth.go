package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"inkcopilot/internal/auth"
)

const sessionKey = "session"

// SessionRequired lets signed-in users through. Pages redirect to /login with
// the original path in ?from=, API calls get a 401.
func SessionRequired(store *auth.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := store.Load(c)
		if !ok {
			if _, err := c.Cookie(store.CookieName()); err == nil {
				store.Clear(c)
			}
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			from := c.Request.URL.Path
			if q := c.Request.URL.RawQuery; q != "" {
				from += "?" + q
			}
			c.Redirect(http.StatusFound, "/login?from="+url.QueryEscape(from))
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GuestOnly keeps signed-in users away from the sign-in pages.
func GuestOnly(store *auth.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := store.Load(c); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the session set by SessionRequired.
func GetSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

func isAPIRequest(c *gin.Context) bool {
	p := c.Request.URL.Path
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/ws/")
}
